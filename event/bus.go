package event

import (
	"context"
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/ssbcFund/meta"
)

// Bus 进程内的事件广播，websocket 推送用
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan meta.LedgerEvent
	nextID int
	buffer int
}

func NewBus(buffer int) *Bus {
	return &Bus{subs: map[int]chan meta.LedgerEvent{}, buffer: buffer}
}

// Subscribe 返回事件通道和取消函数，取消后通道关闭
func (b *Bus) Subscribe() (<-chan meta.LedgerEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan meta.LedgerEvent, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// Subscribers 当前订阅数
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish 不阻塞，订阅方处理不过来时丢弃
func (b *Bus) Publish(_ context.Context, ev meta.LedgerEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Warningf("event bus subscriber %d is full, drop event %s", id, ev.ID)
		}
	}
	return nil
}
