package meta

type HttpResponse struct {
	Error     string      `json:"error"`                // 如果不为空代表错误信息
	ErrorCode string      `json:"error_code,omitempty"` // 错误类型名，如 CampaignExpired
	Data      interface{} `json:"data"`
	Code      int         `json:"code"` // vue-element-admin的前端校验码，必须为20000
}

// SignedRequest 用户提交的带签名请求
// Sign = hex(RSA-PKCS1v15-SHA256(Method + ":" + Args))
type SignedRequest struct {
	From      string `json:"from"`
	PublicKey string `json:"public_key"`
	Method    string `json:"method"`
	Args      string `json:"args"` // json 字符串
	Sign      string `json:"sign"`
}

// Payload 返回被签名的原文
func (r SignedRequest) Payload() []byte {
	return []byte(r.Method + ":" + r.Args)
}

type Query struct {
	Type       string   `json:"type"`
	Parameters []string `json:"parameters"`
}

// 各方法的参数
type CreateCampaignArgs struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetAmount int64  `json:"target_amount"`
	Deadline     int64  `json:"deadline"`
}

type FundCampaignArgs struct {
	Campaign string `json:"campaign"`
	Amount   int64  `json:"amount"`
}

type WithdrawFundsArgs struct {
	Campaign string `json:"campaign"`
}

type RefundContributionArgs struct {
	Campaign     string `json:"campaign"`
	Contribution string `json:"contribution"`
}
