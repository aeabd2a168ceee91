package event

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/ssbcFund/meta"
	"github.com/ssbcFund/redis"
	"github.com/ssbcFund/util"
)

// Publisher 发布账本事件
type Publisher interface {
	Publish(ctx context.Context, ev meta.LedgerEvent) error
}

// History 查询最近的事件
type History interface {
	Recent(ctx context.Context, n int) ([]meta.LedgerEvent, error)
}

// Multi 依次发布到多个 Publisher，单个失败只记录日志
func Multi(pubs ...Publisher) Publisher {
	return multi(pubs)
}

type multi []Publisher

func (m multi) Publish(ctx context.Context, ev meta.LedgerEvent) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			log.Errorf("publish event %s error: %s", ev.ID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Discard 丢弃所有事件
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, meta.LedgerEvent) error { return nil }

// RedisPublisher 将事件序列化后追加到 redis list
type RedisPublisher struct {
	client *redis.Client
	key    string
	maxLen int64
}

func NewRedisPublisher(client *redis.Client, key string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, key: key, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev meta.LedgerEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.PushToList(ctx, p.key, string(data), p.maxLen)
}

func (p *RedisPublisher) Recent(ctx context.Context, n int) ([]meta.LedgerEvent, error) {
	raw, err := p.client.TailOfList(ctx, p.key, int64(n))
	if err != nil {
		return nil, err
	}
	events := make([]meta.LedgerEvent, 0, len(raw))
	for _, s := range raw {
		var ev meta.LedgerEvent
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			util.DealJsonErr("RedisPublisher.Recent", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Recorder 在内存中保存事件，没有 redis 时用作 History
type Recorder struct {
	mu     sync.Mutex
	events []meta.LedgerEvent
	max    int
}

// NewRecorder max <= 0 表示不限制条数
func NewRecorder(max int) *Recorder {
	return &Recorder{max: max}
}

func (r *Recorder) Publish(_ context.Context, ev meta.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.max > 0 && len(r.events) > r.max {
		r.events = r.events[len(r.events)-r.max:]
	}
	return nil
}

func (r *Recorder) Recent(_ context.Context, n int) ([]meta.LedgerEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.events) {
		n = len(r.events)
	}
	out := make([]meta.LedgerEvent, n)
	copy(out, r.events[len(r.events)-n:])
	return out, nil
}

// Events 返回全部事件的拷贝
func (r *Recorder) Events() []meta.LedgerEvent {
	out, _ := r.Recent(context.Background(), 0)
	return out
}
