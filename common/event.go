package common

// 账本事件类型
const (
	EventCampaignCreated      = "campaign.created"
	EventCampaignFunded       = "campaign.funded"
	EventCampaignWithdrawn    = "campaign.withdrawn"
	EventContributionRefunded = "contribution.refunded"
	EventCampaignExpired      = "campaign.expired"
	EventAccountRegistered    = "account.registered"
)

// redis 中存储事件的默认 list key
const EventListKey = "ledgerEvents"
