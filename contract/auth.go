package contract

import (
	"encoding/hex"
	"fmt"

	"github.com/ssbcFund/meta"
	"github.com/ssbcFund/util"
)

// Authenticate 校验请求签名，返回已认证的调用者地址。
// 地址必须是公钥的 hash，签名必须能被该公钥验证。
func Authenticate(req meta.SignedRequest) (string, error) {
	if req.From == "" || req.PublicKey == "" || req.Sign == "" {
		return "", fmt.Errorf("%w: missing from, public key or sign", ErrUnauthenticated)
	}
	if util.AddressFromPublicKey([]byte(req.PublicKey)) != req.From {
		return "", fmt.Errorf("%w: address does not match public key", ErrUnauthenticated)
	}
	sign, err := hex.DecodeString(req.Sign)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnauthenticated, err)
	}
	ok, err := util.RsaVerySignWithSha256(req.Payload(), sign, []byte(req.PublicKey))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnauthenticated, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: bad signature", ErrUnauthenticated)
	}
	return req.From, nil
}

// SignRequest 客户端对请求签名
func SignRequest(req meta.SignedRequest, privateKey []byte) (meta.SignedRequest, error) {
	sign, err := util.RsaSignWithSha256(req.Payload(), privateKey)
	if err != nil {
		return req, err
	}
	req.Sign = hex.EncodeToString(sign)
	return req, nil
}
