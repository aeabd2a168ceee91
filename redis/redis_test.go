package redis

import (
	"context"
	"os"
	"testing"

	"gotest.tools/v3/assert"
)

// 需要本地 redis，设置 REDIS_ADDR 后运行
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := NewClient(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	assert.NilError(t, c.Ping(context.Background()))
	return c
}

func TestPushToListTrims(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	key := "ssbcFund:test:list"
	_ = c.Del(ctx, key)

	for _, v := range []string{"a", "b", "c"} {
		assert.NilError(t, c.PushToList(ctx, key, v, 2))
	}
	tail, err := c.TailOfList(ctx, key, 10)
	assert.NilError(t, err)
	assert.DeepEqual(t, tail, []string{"b", "c"})
	_ = c.Del(ctx, key)
}
