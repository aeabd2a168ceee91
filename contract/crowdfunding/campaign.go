package crowdfunding

import (
	"errors"

	"github.com/ssbcFund/common"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/meta"
	"github.com/ssbcFund/util"
)

// CampaignAddress 活动地址由 (creator, title) 派生，同一发起人不能创建同名活动
func CampaignAddress(creator, title string) string {
	return util.DeriveAddress(common.CampaignSeed, creator, title)
}

func campaignKey(address string) string {
	return common.CampaignPrefix + address
}

func validateCampaign(title, description string, targetAmount, deadline, now int64) error {
	if len(title) > common.MaxTitleLen {
		return ErrTitleTooLong
	}
	if len(description) > common.MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if targetAmount <= 0 {
		return ErrInvalidTargetAmount
	}
	if deadline <= now {
		return ErrInvalidDeadline
	}
	return nil
}

type recordReader interface {
	ReadRecord(key string, v interface{}) error
}

func loadCampaign(r recordReader, address string) (meta.Campaign, error) {
	var campaign meta.Campaign
	err := r.ReadRecord(campaignKey(address), &campaign)
	if errors.Is(err, contract.ErrRecordNotFound) {
		return meta.Campaign{}, ErrCampaignNotFound
	}
	return campaign, err
}
