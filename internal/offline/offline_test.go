package offline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/events"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/storage"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	g := storage.NewGateway(
		storage.NewBadgerBackend(storage.BadgerOptions{InMemory: true}),
		storage.NewMemoryBackend(storage.MemoryOptions{}),
		storage.GatewayOptions{},
	)
	require.NoError(t, g.Init(context.Background()))
	t.Cleanup(func() { g.Close() })

	clock := &stepClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	return NewQueue(storage.NewQueueRepo(g), WithClock(clock.now))
}

func TestQueue_DequeueOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "upload", map[string]string{"n": "t1"}, 1)
	require.NoError(t, err)
	urgent, err := q.Enqueue(ctx, "upload", map[string]string{"n": "t2"}, 5)
	require.NoError(t, err)
	third, err := q.Enqueue(ctx, "upload", map[string]string{"n": "t3"}, 1)
	require.NoError(t, err)

	entries := q.DequeueAllOrdered(ctx)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{urgent, first, third}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Equal(t, 0, entries[0].Retries)

	var data map[string]string
	require.NoError(t, json.Unmarshal(entries[0].Data, &data))
	assert.Equal(t, "t2", data["n"])

	// Dequeue does not consume.
	assert.Equal(t, 3, q.Len(ctx))
}

func TestQueue_PendingFiltersByOperation(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	low, err := q.Enqueue(ctx, "upload", nil, 1)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "delete", nil, 9)
	require.NoError(t, err)
	high, err := q.Enqueue(ctx, "upload", nil, 3)
	require.NoError(t, err)

	entries := q.Pending(ctx, "upload")
	require.Len(t, entries, 2)
	assert.Equal(t, []int64{high, low}, []int64{entries[0].ID, entries[1].ID})
	assert.Empty(t, q.Pending(ctx, "rename"))
}

func TestQueue_RemoveAndRetry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, "upload", nil, 0)
	require.NoError(t, err)

	e, err := q.IncrementRetry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Retries)

	require.NoError(t, q.Remove(ctx, id))
	require.NoError(t, q.Remove(ctx, id))
	assert.Equal(t, 0, q.Len(ctx))

	_, err = q.IncrementRetry(ctx, id)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestQueue_EnqueueRejectsEmptyOperation(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.Enqueue(context.Background(), "", nil, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestReplayer_ReplayOnce(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	r := NewReplayer(q, ReplayerOptions{MaxRetries: 2})

	var order []string
	r.Register("ok", func(_ context.Context, e model.OfflineQueueEntry) error {
		var s string
		require.NoError(t, json.Unmarshal(e.Data, &s))
		order = append(order, s)
		return nil
	})
	r.Register("fail", func(context.Context, model.OfflineQueueEntry) error {
		return stderrors.New("remote down")
	})

	_, err := q.Enqueue(ctx, "ok", "low", 0)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "ok", "high", 9)
	require.NoError(t, err)
	failID, err := q.Enqueue(ctx, "fail", nil, 0)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "unknown", nil, 0)
	require.NoError(t, err)

	res := r.ReplayOnce(ctx)
	assert.Equal(t, ReplayResult{Replayed: 2, Failed: 1, Skipped: 1}, res)
	assert.Equal(t, []string{"high", "low"}, order)

	remaining := q.DequeueAllOrdered(ctx)
	require.Len(t, remaining, 2)
	assert.Equal(t, failID, remaining[0].ID)
	assert.Equal(t, 1, remaining[0].Retries)

	res = r.ReplayOnce(ctx)
	assert.Equal(t, ReplayResult{Dropped: 1, Skipped: 1}, res)
	require.Len(t, q.DequeueAllOrdered(ctx), 1)
	assert.Equal(t, "unknown", q.DequeueAllOrdered(ctx)[0].Operation)
}

func TestReplayer_OnlineEventTriggersReplay(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	bus := events.NewBus()
	r := NewReplayer(q, ReplayerOptions{Bus: bus, Interval: time.Hour})

	var done atomic.Int32
	r.Register("upload", func(context.Context, model.OfflineQueueEntry) error {
		done.Add(1)
		return nil
	})
	_, err := q.Enqueue(ctx, "upload", nil, 0)
	require.NoError(t, err)

	r.Start(ctx)
	r.Start(ctx)
	defer r.Stop()

	bus.Publish(events.Online{})
	require.Eventually(t, func() bool { return done.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, q.Len(ctx))
}

func TestReplayer_StartStop(t *testing.T) {
	q := newTestQueue(t)
	bus := events.NewBus()
	r := NewReplayer(q, ReplayerOptions{Bus: bus, Interval: time.Hour})

	r.Start(context.Background())
	assert.Equal(t, 1, bus.Len())

	r.Stop()
	r.Stop()
	assert.Equal(t, 0, bus.Len())
}

func TestReplayer_RunReturnsOnCancel(t *testing.T) {
	q := newTestQueue(t)
	r := NewReplayer(q, ReplayerOptions{Interval: 10 * time.Millisecond})

	var calls atomic.Int32
	r.Register("upload", func(context.Context, model.OfflineQueueEntry) error {
		calls.Add(1)
		return nil
	})
	_, err := q.Enqueue(context.Background(), "upload", nil, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
