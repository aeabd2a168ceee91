package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/ssbcFund/common"
	"github.com/ssbcFund/contract/crowdfunding"
	"github.com/ssbcFund/event"
	"github.com/ssbcFund/meta"
)

// ExpiryJob 定期扫描已过截止时间但仍未关闭的活动，发布 campaign.expired 事件。
// 只读，不修改账本；每个活动在进程生命周期内只报告一次。
type ExpiryJob struct {
	program   *crowdfunding.Program
	publisher event.Publisher
	interval  time.Duration

	mu       sync.Mutex
	reported map[string]bool
}

func NewExpiryJob(program *crowdfunding.Program, publisher event.Publisher, interval time.Duration) *ExpiryJob {
	return &ExpiryJob{
		program:   program,
		publisher: publisher,
		interval:  interval,
		reported:  map[string]bool{},
	}
}

func (j *ExpiryJob) GetName() string {
	return "campaign_expiry_sweeper"
}

func (j *ExpiryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行一次扫描，返回本次新报告的活动数
func (j *ExpiryJob) Execute() int {
	campaigns, err := j.program.ListCampaigns()
	if err != nil {
		log.Errorf("[ExpiryJob] list campaigns error: %s", err)
		return 0
	}
	now := j.program.Now()

	j.mu.Lock()
	defer j.mu.Unlock()
	count := 0
	for _, c := range campaigns {
		// 关闭的活动不会再打开，不必继续记着
		if !c.IsActive {
			delete(j.reported, c.Address)
			continue
		}
		if !c.Expired(now) || j.reported[c.Address] {
			continue
		}
		ev := meta.LedgerEvent{
			ID:        uuid.NewString(),
			Type:      common.EventCampaignExpired,
			Campaign:  c.Address,
			Actor:     j.GetName(),
			Amount:    c.CurrentAmount,
			Timestamp: now,
			Data: map[string]interface{}{
				"outcome":       c.Status(now),
				"target_amount": c.TargetAmount,
			},
		}
		if err := j.publisher.Publish(context.Background(), ev); err != nil {
			log.Errorf("[ExpiryJob] publish %s error: %s", c.Address, err)
			continue
		}
		j.reported[c.Address] = true
		count++
	}
	if count > 0 {
		log.Infof("[ExpiryJob] %d campaigns expired", count)
	}
	return count
}
