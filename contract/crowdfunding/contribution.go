package crowdfunding

import (
	"errors"

	"github.com/ssbcFund/common"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/meta"
	"github.com/ssbcFund/util"
)

// ContributionAddress 出资记录地址由 (campaign, contributor) 派生，每人每个活动只有一条
func ContributionAddress(campaign, contributor string) string {
	return util.DeriveAddress(common.ContributionSeed, campaign, contributor)
}

func contributionKey(campaign, address string) string {
	return contributionPrefix(campaign) + address
}

func contributionPrefix(campaign string) string {
	return common.ContributionPrefix + campaign + "_"
}

// 不属于该活动的出资记录同样视为不存在
func loadContribution(r recordReader, campaign, address string) (meta.Contribution, error) {
	var contribution meta.Contribution
	err := r.ReadRecord(contributionKey(campaign, address), &contribution)
	if errors.Is(err, contract.ErrRecordNotFound) {
		return meta.Contribution{}, ErrContributionNotFound
	}
	return contribution, err
}
