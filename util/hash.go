package util

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/cloudflare/cfssl/log"
)

//计算hash摘要
func CalculateHash(msg []byte) ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write(msg); err != nil {
		log.Info(err)
		return nil, err
	}
	return h.Sum(nil), nil
}

// DeriveAddress 由种子派生确定性地址，每个种子带长度前缀，避免拼接产生歧义
func DeriveAddress(seeds ...string) string {
	h := sha256.New()
	var l [4]byte
	for _, s := range seeds {
		binary.BigEndian.PutUint32(l[:], uint32(len(s)))
		h.Write(l[:])
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AddressFromPublicKey 将公钥hash作为账户地址,256位
func AddressFromPublicKey(pubKey []byte) string {
	pubHash, _ := CalculateHash(pubKey)
	return hex.EncodeToString(pubHash)
}
