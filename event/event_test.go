package event

import (
	"context"
	"errors"
	"testing"

	"github.com/ssbcFund/meta"
	"gotest.tools/v3/assert"
)

type failing struct{}

func (failing) Publish(context.Context, meta.LedgerEvent) error { return errors.New("down") }

func TestRecorderRecent(t *testing.T) {
	r := NewRecorder(3)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3", "4"} {
		assert.NilError(t, r.Publish(ctx, meta.LedgerEvent{ID: id}))
	}

	all := r.Events()
	assert.Equal(t, len(all), 3)
	assert.Equal(t, all[0].ID, "2")

	last, err := r.Recent(ctx, 2)
	assert.NilError(t, err)
	assert.Equal(t, last[0].ID, "3")
	assert.Equal(t, last[1].ID, "4")
}

func TestMultiContinuesAfterFailure(t *testing.T) {
	r := NewRecorder(0)
	err := Multi(failing{}, r).Publish(context.Background(), meta.LedgerEvent{ID: "x"})
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, len(r.Events()), 1)
}

func TestBusSubscribe(t *testing.T) {
	b := NewBus(1)
	ch, cancel := b.Subscribe()

	assert.NilError(t, b.Publish(context.Background(), meta.LedgerEvent{ID: "a"}))
	// 缓冲已满，第二条被丢弃而不是阻塞
	assert.NilError(t, b.Publish(context.Background(), meta.LedgerEvent{ID: "b"}))

	ev := <-ch
	assert.Equal(t, ev.ID, "a")

	cancel()
	cancel()
	_, ok := <-ch
	assert.Assert(t, !ok)
}
