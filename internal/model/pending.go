package model

import "time"

// PendingOrder is an order snapshot held in the durable local queue while
// the store is unreachable. It carries no order number; one is allocated at
// replay time, immediately before persistence, so that numbers follow replay
// order rather than creation order.
//
// Fields:
//  LocalID  opaque identity of the queue entry, generated on enqueue.
//  QueuedAt enqueue timestamp in UTC.
//  Order    the full order snapshot awaiting persistence.
type PendingOrder struct {
	LocalID  string    `json:"local_id"`
	QueuedAt time.Time `json:"queued_at"`
	Order    Order     `json:"order"`
}
