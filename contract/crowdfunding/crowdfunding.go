// Package crowdfunding 实现托管式众筹：发起人创建活动，出资人的资金由活动托管账户持有，
// 达成目标或过了截止时间后发起人一次性提取；过期且未达成目标时出资人可以逐笔退款。
package crowdfunding

import (
	"context"
	"encoding/json"
	"math"

	"github.com/cloudflare/cfssl/log"
	"github.com/ssbcFund/common"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/meta"
)

type Program struct {
	ledger *contract.Ledger
}

func New(ledger *contract.Ledger) *Program {
	return &Program{ledger: ledger}
}

// CreateCampaign 创建众筹活动，并为其开设余额为 0 的托管账户
func (p *Program) CreateCampaign(ctx context.Context, creator, title, description string, targetAmount, deadline int64) (meta.Campaign, error) {
	var campaign meta.Campaign
	err := p.ledger.Invoke(ctx, creator, func(c *contract.Context) error {
		if err := validateCampaign(title, description, targetAmount, deadline, c.Now()); err != nil {
			return err
		}
		address := CampaignAddress(c.Caller(), title)
		campaign = meta.Campaign{
			Address:       address,
			Creator:       c.Caller(),
			Title:         title,
			Description:   description,
			TargetAmount:  targetAmount,
			CurrentAmount: 0,
			Deadline:      deadline,
			CreatedAt:     c.Now(),
			IsActive:      true,
		}
		if err := c.CreateRecord(campaignKey(address), campaign); err != nil {
			return err
		}
		if err := c.OpenEscrow(address); err != nil {
			return err
		}
		c.Emit(common.EventCampaignCreated, address, 0, map[string]interface{}{
			"title":         title,
			"target_amount": targetAmount,
			"deadline":      deadline,
		})
		return nil
	})
	if err != nil {
		return meta.Campaign{}, err
	}
	log.Infof("Campaign created: %s", campaign.Title)
	return campaign, nil
}

// FundCampaign 出资。出资记录、转账和 CurrentAmount 的累加在同一个事务里完成
func (p *Program) FundCampaign(ctx context.Context, contributor, campaignAddress string, amount int64) (meta.Contribution, error) {
	var contribution meta.Contribution
	err := p.ledger.Invoke(ctx, contributor, func(c *contract.Context) error {
		campaign, err := loadCampaign(c, campaignAddress)
		if err != nil {
			return err
		}
		if !campaign.IsActive {
			return ErrCampaignNotActive
		}
		if campaign.Expired(c.Now()) {
			return ErrCampaignExpired
		}
		if amount <= 0 || campaign.CurrentAmount > math.MaxInt64-amount {
			return ErrInvalidAmount
		}

		address := ContributionAddress(campaign.Address, c.Caller())
		contribution = meta.Contribution{
			Address:     address,
			Contributor: c.Caller(),
			Campaign:    campaign.Address,
			Amount:      amount,
			Timestamp:   c.Now(),
		}
		if err := c.CreateRecord(contributionKey(campaign.Address, address), contribution); err != nil {
			return err
		}
		if err := c.Transfer(c.Caller(), campaign.Address, amount); err != nil {
			return err
		}
		campaign.CurrentAmount += amount
		if err := c.UpdateRecord(campaignKey(campaign.Address), campaign); err != nil {
			return err
		}
		c.Emit(common.EventCampaignFunded, campaign.Address, amount, map[string]interface{}{
			"contribution":   address,
			"current_amount": campaign.CurrentAmount,
		})
		return nil
	})
	if err != nil {
		return meta.Contribution{}, err
	}
	log.Infof("Contribution of %d received from %s", amount, contributor)
	return contribution, nil
}

// WithdrawFunds 发起人一次性提取托管账户中的全部资金，之后活动永久关闭
func (p *Program) WithdrawFunds(ctx context.Context, caller, campaignAddress string) (int64, error) {
	var amount int64
	err := p.ledger.Invoke(ctx, caller, func(c *contract.Context) error {
		campaign, err := loadCampaign(c, campaignAddress)
		if err != nil {
			return err
		}
		if campaign.Creator != c.Caller() {
			return ErrUnauthorizedWithdrawal
		}
		if !campaign.IsActive {
			return ErrCampaignNotActive
		}
		if !campaign.GoalReached() && !campaign.Expired(c.Now()) {
			return ErrWithdrawalNotAllowed
		}

		amount = campaign.CurrentAmount
		if amount > 0 {
			if err := c.Transfer(campaign.Address, campaign.Creator, amount); err != nil {
				return err
			}
		}
		campaign.CurrentAmount = 0
		campaign.IsActive = false
		if err := c.UpdateRecord(campaignKey(campaign.Address), campaign); err != nil {
			return err
		}
		c.Emit(common.EventCampaignWithdrawn, campaign.Address, amount, nil)
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Infof("Creator withdrew %d", amount)
	return amount, nil
}

// RefundContribution 过期且未达成目标时，出资人取回自己的出资并删除出资记录。
// CurrentAmount 同步扣减，保证它始终等于托管账户余额。
func (p *Program) RefundContribution(ctx context.Context, caller, campaignAddress, contributionAddress string) (meta.Refund, error) {
	var refund meta.Refund
	err := p.ledger.Invoke(ctx, caller, func(c *contract.Context) error {
		campaign, err := loadCampaign(c, campaignAddress)
		if err != nil {
			return err
		}
		contribution, err := loadContribution(c, campaign.Address, contributionAddress)
		if err != nil {
			return err
		}
		if !campaign.Expired(c.Now()) || campaign.GoalReached() {
			return ErrRefundNotAllowed
		}
		if contribution.Contributor != c.Caller() {
			return ErrUnauthorizedRefund
		}

		if err := c.Transfer(campaign.Address, contribution.Contributor, contribution.Amount); err != nil {
			return err
		}
		reclaim, err := c.DeleteRecord(contributionKey(campaign.Address, contribution.Address), contribution.Contributor)
		if err != nil {
			return err
		}
		campaign.CurrentAmount -= contribution.Amount
		if err := c.UpdateRecord(campaignKey(campaign.Address), campaign); err != nil {
			return err
		}
		refund = meta.Refund{Contribution: contribution, Reclaim: reclaim}
		c.Emit(common.EventContributionRefunded, campaign.Address, contribution.Amount, map[string]interface{}{
			"contribution":    contribution.Address,
			"reclaimed_bytes": reclaim.Bytes,
		})
		return nil
	})
	if err != nil {
		return meta.Refund{}, err
	}
	log.Infof("Refunded %d to %s", refund.Contribution.Amount, caller)
	return refund, nil
}

// Now 账本时间
func (p *Program) Now() int64 {
	return p.ledger.Now()
}

func (p *Program) GetCampaign(address string) (meta.Campaign, error) {
	var campaign meta.Campaign
	err := p.ledger.View(func(v *contract.View) error {
		var err error
		campaign, err = loadCampaign(v, address)
		return err
	})
	return campaign, err
}

func (p *Program) ListCampaigns() ([]meta.Campaign, error) {
	campaigns := []meta.Campaign{}
	err := p.ledger.View(func(v *contract.View) error {
		return v.ScanRecords(common.CampaignPrefix, func(raw json.RawMessage) error {
			var campaign meta.Campaign
			if err := json.Unmarshal(raw, &campaign); err != nil {
				return err
			}
			campaigns = append(campaigns, campaign)
			return nil
		})
	})
	return campaigns, err
}

// GetContribution 按 (campaign, contributor) 查询出资记录
func (p *Program) GetContribution(campaignAddress, contributor string) (meta.Contribution, error) {
	var contribution meta.Contribution
	err := p.ledger.View(func(v *contract.View) error {
		var err error
		contribution, err = loadContribution(v, campaignAddress, ContributionAddress(campaignAddress, contributor))
		return err
	})
	return contribution, err
}

func (p *Program) ListContributions(campaignAddress string) ([]meta.Contribution, error) {
	contributions := []meta.Contribution{}
	err := p.ledger.View(func(v *contract.View) error {
		if _, err := loadCampaign(v, campaignAddress); err != nil {
			return err
		}
		return v.ScanRecords(contributionPrefix(campaignAddress), func(raw json.RawMessage) error {
			var contribution meta.Contribution
			if err := json.Unmarshal(raw, &contribution); err != nil {
				return err
			}
			contributions = append(contributions, contribution)
			return nil
		})
	})
	return contributions, err
}

// Balance 账户余额，活动地址对应托管余额
func (p *Program) Balance(address string) (int64, error) {
	var balance int64
	err := p.ledger.View(func(v *contract.View) error {
		var err error
		balance, err = v.Balance(address)
		return err
	})
	return balance, err
}
