package redis

import (
	"context"

	"github.com/cloudflare/cfssl/log"
	"github.com/go-redis/redis/v8"
)

// Client 对 go-redis 的简单封装
type Client struct {
	rdb *redis.Client
}

func NewClient(addr, password string, db int) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// list push，maxLen > 0 时只保留最新的 maxLen 条
func (c *Client) PushToList(ctx context.Context, key string, value string, maxLen int64) error {
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, key, value)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, -maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Errorf("push to list error: %s", err)
		return err
	}
	return nil
}

// 获取 list 末尾的 n 条
func (c *Client) TailOfList(ctx context.Context, key string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return c.rdb.LRange(ctx, key, -n, -1).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}
