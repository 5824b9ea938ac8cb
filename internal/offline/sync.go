package offline

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/salgaderia/pos/internal/connectivity"
	"github.com/salgaderia/pos/internal/model"
)

// Persister replays one queued order through the same allocate, persist and
// side-effect steps an online order gets. It must allocate the order number
// itself, immediately before persistence, so numbers follow replay order.
type Persister interface {
	PersistQueued(ctx context.Context, o model.Order) (*model.Order, error)
}

// Result summarizes one sync run for the operator: how many queued orders
// were persisted and how many remain for the next attempt.
type Result struct {
	Synced    int    `json:"synced"`
	Remaining int    `json:"remaining"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Coordinator drains the offline queue when connectivity returns. It
// processes entries strictly in enqueue order, one at a time, and stops at
// the first failure, leaving the failed entry and everything behind it for
// the next run. A second Sync while one is in flight is a guarded no-op.
type Coordinator struct {
	queue   Queue
	persist Persister
	running atomic.Bool
}

// NewCoordinator returns a Coordinator draining queue through persist.
func NewCoordinator(queue Queue, persist Persister) *Coordinator {
	return &Coordinator{queue: queue, persist: persist}
}

// Running reports whether a sync is currently in flight.
func (c *Coordinator) Running() bool { return c.running.Load() }

// Sync drains the queue head-first. Replaying preserves enqueue order and
// never reorders around a failure: reordering could hand out numbers that
// contradict the paper tickets operators reconcile against. An empty queue
// is a no-op that allocates nothing.
func (c *Coordinator) Sync(ctx context.Context) Result {
	if !c.running.CompareAndSwap(false, true) {
		return Result{Skipped: true}
	}
	defer c.running.Store(false)

	entries, err := c.queue.PeekAll(ctx)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if len(entries) == 0 {
		return Result{}
	}
	log.Printf("sync: replaying %d queued order(s)", len(entries))

	synced := 0
	for i, entry := range entries {
		persisted, err := c.persist.PersistQueued(ctx, entry.Order)
		if err != nil {
			log.Printf("sync: entry %s failed, %d order(s) remain: %v",
				entry.LocalID, len(entries)-i, err)
			return Result{Synced: synced, Remaining: len(entries) - i, Error: err.Error()}
		}
		if err := c.queue.Remove(ctx, entry.LocalID); err != nil {
			// The order persisted but the entry could not be removed. Left
			// queued it would replay behind a fresh number on the next run,
			// so rewrite the queue without it before carrying on.
			log.Printf("sync: persisted #%d but failed to dequeue %s, rewriting queue: %v",
				persisted.OrderNumber, entry.LocalID, err)
			if rerr := c.queue.ReplaceAll(ctx, entries[i+1:]); rerr != nil {
				log.Printf("sync: queue rewrite failed, stopping: %v", rerr)
				return Result{Synced: synced, Remaining: len(entries) - i, Error: rerr.Error()}
			}
		}
		synced++
		log.Printf("sync: replayed queued order as #%d", persisted.OrderNumber)
	}
	return Result{Synced: synced}
}

// Start subscribes to connectivity transitions and runs a sync whenever the
// store comes back online. It returns after spawning the watcher; the
// goroutine exits when ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context, monitor *connectivity.Monitor) {
	transitions := monitor.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case state := <-transitions:
				if state != connectivity.Online {
					continue
				}
				res := c.Sync(ctx)
				if res.Error != "" {
					log.Printf("sync: partial failure, %d remaining: %s", res.Remaining, res.Error)
				}
			}
		}
	}()
}
