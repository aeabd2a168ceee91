package meta

// 众筹活动状态，仅用于展示，不参与状态机判断
const (
	CampaignStatusActive     = "active"     // 筹款中
	CampaignStatusSucceeded  = "succeeded"  // 已达成目标，等待发起人提取
	CampaignStatusRefundable = "refundable" // 已过期且未达成目标，可退款
	CampaignStatusWithdrawn  = "withdrawn"  // 发起人已提取
)

// Campaign 众筹活动，同时也是托管账户的地址
type Campaign struct {
	Address       string `json:"address"`
	Creator       string `json:"creator"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TargetAmount  int64  `json:"target_amount"`
	CurrentAmount int64  `json:"current_amount"`
	Deadline      int64  `json:"deadline"`   // unix 秒
	CreatedAt     int64  `json:"created_at"` // unix 秒
	IsActive      bool   `json:"is_active"`
}

// GoalReached 是否已达成众筹目标
func (c Campaign) GoalReached() bool {
	return c.CurrentAmount >= c.TargetAmount
}

// Expired 在 now 时刻是否已过截止时间
func (c Campaign) Expired(now int64) bool {
	return now >= c.Deadline
}

// Status 返回活动在 now 时刻的展示状态
func (c Campaign) Status(now int64) string {
	switch {
	case !c.IsActive:
		return CampaignStatusWithdrawn
	case c.GoalReached():
		return CampaignStatusSucceeded
	case c.Expired(now):
		return CampaignStatusRefundable
	default:
		return CampaignStatusActive
	}
}

// Contribution 一个出资人对一个活动的出资记录
type Contribution struct {
	Address     string `json:"address"`
	Contributor string `json:"contributor"`
	Campaign    string `json:"campaign"`
	Amount      int64  `json:"amount"`
	Timestamp   int64  `json:"timestamp"`
}

// Reclaim 删除记录后返还的存储空间凭据
type Reclaim struct {
	Key         string `json:"key"`
	Bytes       int    `json:"bytes"`
	Beneficiary string `json:"beneficiary"`
}

// Refund 退款结果
type Refund struct {
	Contribution Contribution `json:"contribution"`
	Reclaim      Reclaim      `json:"reclaim"`
}
