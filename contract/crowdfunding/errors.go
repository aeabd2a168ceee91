package crowdfunding

// Error 众筹程序的错误，Code 与链上程序的自定义错误码保持一致（从 6000 开始）
type Error struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	ErrTitleTooLong           = &Error{6000, "TitleTooLong", "Title is too long"}
	ErrDescriptionTooLong     = &Error{6001, "DescriptionTooLong", "Description is too long"}
	ErrInvalidTargetAmount    = &Error{6002, "InvalidTargetAmount", "Invalid target amount"}
	ErrInvalidDeadline        = &Error{6003, "InvalidDeadline", "Invalid deadline"}
	ErrCampaignNotActive      = &Error{6004, "CampaignNotActive", "Campaign is not active"}
	ErrCampaignExpired        = &Error{6005, "CampaignExpired", "Campaign has expired"}
	ErrInvalidAmount          = &Error{6006, "InvalidAmount", "Invalid amount"}
	ErrUnauthorizedWithdrawal = &Error{6007, "UnauthorizedWithdrawal", "Unauthorized withdrawal"}
	ErrWithdrawalNotAllowed   = &Error{6008, "WithdrawalNotAllowed", "Withdrawal not allowed"}
	ErrRefundNotAllowed       = &Error{6009, "RefundNotAllowed", "Refund not allowed"}
	ErrUnauthorizedRefund     = &Error{6010, "UnauthorizedRefund", "Unauthorized refund"}
	ErrCampaignNotFound       = &Error{6011, "CampaignNotFound", "Campaign not found"}
	ErrContributionNotFound   = &Error{6012, "ContributionNotFound", "Contribution not found"}
)
