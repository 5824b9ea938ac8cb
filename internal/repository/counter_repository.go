package repository

import (
	"context"
	"database/sql"
)

// counterName is the single counters row owned by the sequence allocator.
const counterName = "order_number"

// CounterRepo provides access to the persisted sequence counter. The
// counter is advisory: the allocator always reconciles it against the
// maximum persisted order number before issuing the next value, so a
// counter that drifted behind reality heals on the next allocation.
type CounterRepo struct {
	db *sql.DB
}

// NewCounterRepo returns a new CounterRepo bound to the given database.
func NewCounterRepo(db *sql.DB) *CounterRepo { return &CounterRepo{db: db} }

// ValueTx reads the counter inside the caller's transaction, taking a row
// lock so two concurrent allocations serialize on it. A missing row reads
// as 0.
func (r *CounterRepo) ValueTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var v int64
	err := tx.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ? FOR UPDATE`, counterName).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, Classify(err)
	}
	return v, nil
}

// SetTx writes the counter inside the caller's transaction, creating the
// row on first use.
func (r *CounterRepo) SetTx(ctx context.Context, tx *sql.Tx, value int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value)`, counterName, value)
	if err != nil {
		return Classify(err)
	}
	return nil
}
