package offline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salgaderia/pos/internal/connectivity"
	"github.com/salgaderia/pos/internal/model"
)

// fakePersister allocates sequential numbers exactly the way the order
// service would, and can be told to fail on a specific call.
type fakePersister struct {
	mu        sync.Mutex
	next      int64
	persisted []model.Order
	failOn    int // 1-based call index to fail at, 0 = never
	calls     int
	block     chan struct{} // when set, PersistQueued waits on it
}

func (f *fakePersister) PersistQueued(ctx context.Context, o model.Order) (*model.Order, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		return nil, errors.New("persist failed")
	}
	f.next++
	o.OrderNumber = f.next
	o.Status = model.StatusActive
	f.persisted = append(f.persisted, o)
	return &o, nil
}

func TestSync_ReplaysInEnqueueOrder(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	for _, name := range []string{"ana", "bruno", "carla"} {
		_, err := q.Enqueue(ctx, draftOrder(name))
		require.NoError(t, err)
	}
	persister := &fakePersister{}
	coord := NewCoordinator(q, persister)

	result := coord.Sync(ctx)
	assert.Equal(t, 3, result.Synced)
	assert.Equal(t, 0, result.Remaining)
	assert.Empty(t, result.Error)

	require.Len(t, persister.persisted, 3)
	for i, name := range []string{"ana", "bruno", "carla"} {
		assert.Equal(t, name, persister.persisted[i].CustomerName)
		assert.Equal(t, int64(i+1), persister.persisted[i].OrderNumber,
			"numbers must be strictly increasing in enqueue order")
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "queue must be empty after a full sync")
}

func TestSync_StopsAtFirstFailure(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	for _, name := range []string{"ana", "bruno", "carla"} {
		_, err := q.Enqueue(ctx, draftOrder(name))
		require.NoError(t, err)
	}
	persister := &fakePersister{failOn: 2}
	coord := NewCoordinator(q, persister)

	result := coord.Sync(ctx)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 2, result.Remaining)
	assert.NotEmpty(t, result.Error)

	// The 1st is gone, the 2nd and 3rd remain in order, and no number was
	// issued past the failure.
	entries, err := q.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bruno", entries[0].Order.CustomerName)
	assert.Equal(t, "carla", entries[1].Order.CustomerName)
	assert.Equal(t, int64(1), persister.next, "no allocation for entries behind the failure")

	// A retry resumes from the failed head.
	persister.failOn = 0
	result = coord.Sync(ctx)
	assert.Equal(t, 2, result.Synced)
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// flakyQueue wraps a real queue and fails Remove on demand so the rewrite
// fallback is reachable.
type flakyQueue struct {
	Queue
	removeErr    error
	replaceCalls int
}

func (q *flakyQueue) Remove(ctx context.Context, localIDs ...string) error {
	if q.removeErr != nil {
		return q.removeErr
	}
	return q.Queue.Remove(ctx, localIDs...)
}

func (q *flakyQueue) ReplaceAll(ctx context.Context, entries []model.PendingOrder) error {
	q.replaceCalls++
	return q.Queue.ReplaceAll(ctx, entries)
}

func TestSync_RewritesQueueWhenDequeueFails(t *testing.T) {
	q := &flakyQueue{Queue: openTestQueue(t), removeErr: errors.New("delete failed")}
	ctx := context.Background()
	for _, name := range []string{"ana", "bruno"} {
		_, err := q.Enqueue(ctx, draftOrder(name))
		require.NoError(t, err)
	}
	persister := &fakePersister{}
	coord := NewCoordinator(q, persister)

	result := coord.Sync(ctx)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 0, result.Remaining)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, q.replaceCalls, "each failed dequeue falls back to a queue rewrite")

	// Both orders persisted exactly once and nothing is left to replay.
	require.Len(t, persister.persisted, 2)
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a persisted order must never stay queued")
}

func TestSync_EmptyQueueIsNoOp(t *testing.T) {
	q := openTestQueue(t)
	persister := &fakePersister{}
	coord := NewCoordinator(q, persister)

	result := coord.Sync(context.Background())
	assert.Equal(t, Result{}, result)
	assert.Equal(t, 0, persister.calls, "an empty sync must not touch the allocator")
}

func TestSync_SingleFlight(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, draftOrder("ana"))
	require.NoError(t, err)

	block := make(chan struct{})
	persister := &fakePersister{block: block}
	coord := NewCoordinator(q, persister)

	done := make(chan Result, 1)
	go func() { done <- coord.Sync(ctx) }()

	// Wait until the first sync is inside PersistQueued, then race a second.
	for !coord.Running() {
		time.Sleep(time.Millisecond)
	}
	second := coord.Sync(ctx)
	assert.True(t, second.Skipped, "a concurrent sync must be a guarded no-op")

	close(block)
	first := <-done
	assert.Equal(t, 1, first.Synced)
}

func TestSync_TriggeredByConnectivityTransition(t *testing.T) {
	q := openTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := q.Enqueue(ctx, draftOrder("ana"))
	require.NoError(t, err)

	persister := &fakePersister{}
	coord := NewCoordinator(q, persister)
	monitor := connectivity.NewMonitor()
	coord.Start(ctx, monitor)

	monitor.ReportDown()
	monitor.ReportUp() // offline -> online edge triggers the drain

	// The watcher goroutine runs asynchronously; wait for the queue to empty.
	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := q.Len(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		require.True(t, time.Now().Before(deadline), "sync never drained the queue")
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, persister.calls)
}
