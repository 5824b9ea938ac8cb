package repository

import (
	"context"
	"database/sql"
)

// ClientRepo maintains the lightweight client records updated after each
// successful order. This is a downstream side effect of persistence;
// failures here are logged by the caller and never fail the order.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo returns a new ClientRepo bound to the given database.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

// UpsertByPhone creates or updates the client record keyed by phone,
// bumping the order count and last-order timestamp. Orders taken without a
// phone are skipped by the caller.
func (r *ClientRepo) UpsertByPhone(ctx context.Context, phone, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (phone, name, order_count, last_order_at)
		 VALUES (?, ?, 1, UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE
		   name = VALUES(name),
		   order_count = order_count + 1,
		   last_order_at = UTC_TIMESTAMP()`,
		phone, name)
	if err != nil {
		return Classify(err)
	}
	return nil
}
