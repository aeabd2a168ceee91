package meta

// 账户

type Account struct {
	Address   string `json:"address"`    // 账户地址
	Balance   int64  `json:"balance"`    // 账户余额
	PublicKey string `json:"public_key"` // 账户公钥（PEM），托管账户为空
	IsEscrow  bool   `json:"is_escrow"`  // 是否为众筹活动的托管账户
}

// 注册账户时返回给用户的信息
type ChainAccount struct {
	AccountAddress string `json:"account_address"`
	PublicKey      string `json:"public_key"`
	PrivateKey     string `json:"private_key"`
	Balance        int64  `json:"balance"`
}
