// Package sequence issues order numbers. Numbers are positive, unique and
// strictly increasing across the lifetime of the store. The persisted
// counter is only advisory: every allocation re-derives the true floor from
// the maximum persisted order number inside the same transaction, so a
// counter that drifted behind reality (failed write, restore from backup)
// heals itself on the next allocation.
package sequence

import (
	"context"
	"fmt"
)

// Tx is the transaction capability the allocator needs: read and write the
// counter, and read the maximum persisted order number, all with the same
// isolation. Any store offering serializable or snapshot transactions over
// this small working set can implement it.
type Tx interface {
	CounterValue(ctx context.Context) (int64, error)
	SetCounter(ctx context.Context, value int64) error
	MaxOrderNumber(ctx context.Context) (int64, error)
}

// Store runs functions inside such a transaction and additionally offers a
// plain, non-transactional read of the maximum order number for Peek.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	MaxOrderNumber(ctx context.Context) (int64, error)
}

// Allocator produces the next order number. Safe for concurrent use as
// long as the underlying Store provides transactional isolation; the row
// lock on the counter is what serializes concurrent allocations.
type Allocator struct {
	store Store
	width int
}

// NewAllocator returns an Allocator over the given store. width controls
// the zero padding of Format and affects display only.
func NewAllocator(store Store, width int) *Allocator {
	if width <= 0 {
		width = 4
	}
	return &Allocator{store: store, width: width}
}

// Allocate issues the next order number inside one atomic read-modify-write
// transaction: next = max(counter, maxPersisted) + 1, with the counter
// advanced to next before commit. Two concurrent calls never return the
// same value. On failure no number is issued; callers must not display or
// persist anything in that case.
func (a *Allocator) Allocate(ctx context.Context) (int64, error) {
	var next int64
	err := a.store.RunInTx(ctx, func(tx Tx) error {
		counter, err := tx.CounterValue(ctx)
		if err != nil {
			return err
		}
		maxPersisted, err := tx.MaxOrderNumber(ctx)
		if err != nil {
			return err
		}
		next = counter + 1
		if maxPersisted >= counter {
			next = maxPersisted + 1
		}
		return tx.SetCounter(ctx, next)
	})
	if err != nil {
		return 0, fmt.Errorf("allocate order number: %w", err)
	}
	return next, nil
}

// AllocateInTx is the variant used when the caller already holds the
// transaction that will persist the order, so allocation and persistence
// commit or fail together.
func (a *Allocator) AllocateInTx(ctx context.Context, tx Tx) (int64, error) {
	counter, err := tx.CounterValue(ctx)
	if err != nil {
		return 0, err
	}
	maxPersisted, err := tx.MaxOrderNumber(ctx)
	if err != nil {
		return 0, err
	}
	next := counter + 1
	if maxPersisted >= counter {
		next = maxPersisted + 1
	}
	if err := tx.SetCounter(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Peek computes a display-only, non-binding next number: the maximum
// persisted order number plus one, read outside any transaction and never
// written anywhere. The allocate performed at save time remains
// authoritative; a UI showing a peeked number may see a different value
// materialize if another operator saves first.
func (a *Allocator) Peek(ctx context.Context) (int64, error) {
	max, err := a.store.MaxOrderNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("peek order number: %w", err)
	}
	return max + 1, nil
}

// Format renders a number as the zero-padded string shown on tickets. The
// underlying identity stays an integer; padding is display only.
func (a *Allocator) Format(n int64) string {
	return fmt.Sprintf("%0*d", a.width, n)
}
