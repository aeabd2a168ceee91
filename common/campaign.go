package common

// 众筹活动 key: CampaignPrefix+活动地址
const CampaignPrefix = "campaign_"

// 出资记录 key: ContributionPrefix+活动地址+"_"+出资记录地址
const ContributionPrefix = "contribution_"

// 地址派生的种子前缀
const CampaignSeed = "campaign"
const ContributionSeed = "contribution"

// 标题、描述的最大长度（字节）
const MaxTitleLen = 100
const MaxDescriptionLen = 500
