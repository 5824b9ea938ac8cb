package sequence

import (
	"context"
	"database/sql"

	"github.com/salgaderia/pos/internal/repository"
)

// SQLStore adapts the MySQL counter and order repositories to the Store
// capability. RunInTx opens a transaction on the shared handle; the counter
// repository takes a row lock on the counter inside it, which is what makes
// concurrent allocations serialize.
type SQLStore struct {
	db       *sql.DB
	counters *repository.CounterRepo
	orders   *repository.OrderRepo
}

// NewSQLStore returns a SQLStore over the given handle and repositories.
func NewSQLStore(db *sql.DB, counters *repository.CounterRepo, orders *repository.OrderRepo) *SQLStore {
	return &SQLStore{db: db, counters: counters, orders: orders}
}

// RunInTx runs fn inside a transaction, committing on nil and rolling back
// on error. Errors are classified so callers can branch on
// repository.ErrStoreUnavailable and repository.ErrTxConflict.
func (s *SQLStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: dbTx, store: s}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return repository.Classify(err)
	}
	committed = true
	return nil
}

// MaxOrderNumber reads the maximum persisted order number outside any
// transaction, for Peek.
func (s *SQLStore) MaxOrderNumber(ctx context.Context) (int64, error) {
	return s.orders.MaxNumber(ctx)
}

// BeginOrderTx opens a transaction intended to cover both allocation and
// order persistence, returning the raw *sql.Tx alongside the capability
// view so the order repository can write into the same transaction.
func (s *SQLStore) BeginOrderTx(ctx context.Context) (*sql.Tx, Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, repository.Classify(err)
	}
	return dbTx, &sqlTx{tx: dbTx, store: s}, nil
}

// sqlTx implements the Tx capability over a live *sql.Tx.
type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) CounterValue(ctx context.Context) (int64, error) {
	return t.store.counters.ValueTx(ctx, t.tx)
}

func (t *sqlTx) SetCounter(ctx context.Context, value int64) error {
	return t.store.counters.SetTx(ctx, t.tx, value)
}

func (t *sqlTx) MaxOrderNumber(ctx context.Context) (int64, error) {
	return t.store.orders.MaxNumberTx(ctx, t.tx)
}
