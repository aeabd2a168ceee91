package contract

import (
	"sync"
	"time"
)

// Clock 账本的时间预言机，所有截止时间都与它比较，从不使用调用方提供的时间
type Clock interface {
	Now() int64 // unix 秒
}

// SystemClock 使用本机时间
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// ManualClock 手动推进的时钟，测试和回放用
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 时钟只能前进
func (c *ManualClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now > c.now {
		c.now = now
	}
}

func (c *ManualClock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
}
