package util

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/log"
)

var ErrPrivateKey = errors.New("private key error")
var ErrPublicKey = errors.New("public key error")

// 生成rsa公私钥（PEM）
func GetKeyPair() (prvkey, pubkey []byte, err error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, nil, err
	}
	derStream := x509.MarshalPKCS1PrivateKey(privateKey)
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: derStream,
	}
	prvkey = pem.EncodeToMemory(block)
	derPkix, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	block = &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derPkix,
	}
	pubkey = pem.EncodeToMemory(block)
	return prvkey, pubkey, nil
}

// 数字签名
func RsaSignWithSha256(data []byte, keyBytes []byte) ([]byte, error) {
	hashed := sha256.Sum256(data)
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, ErrPrivateKey
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		log.Info("ParsePKCS1PrivateKey err", err)
		return nil, err
	}
	return rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hashed[:])
}

// 签名验证
func RsaVerySignWithSha256(data, signData, keyBytes []byte) (bool, error) {
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return false, ErrPublicKey
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return false, err
	}
	pubKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return false, ErrPublicKey
	}

	hashed := sha256.Sum256(data)
	err = rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, hashed[:], signData)
	if err != nil {
		log.Info("验签不通过！")
		return false, nil
	}
	return true, nil
}
