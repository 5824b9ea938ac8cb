package service

import (
	"context"
	"database/sql"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
	"github.com/salgaderia/pos/internal/sequence"
)

// OrderTx is the transactional surface of an admission: the number counter
// plus the order insert, committing or failing together.
type OrderTx interface {
	sequence.Tx
	CreateOrder(ctx context.Context, o *model.Order) error
}

// OrderStore is the persistence surface the pipeline depends on. The MySQL
// binding is NewSQLOrderStore; anything offering the same transactional
// guarantees can stand in for it.
type OrderStore interface {
	RunInOrderTx(ctx context.Context, fn func(tx OrderTx) error) error
	Update(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	SetStatus(ctx context.Context, id uint64, status string) error
}

// SQLOrderStore binds the sequence store and the order repository into one
// OrderStore, sharing a single database transaction between the counter
// advance and the order insert.
type SQLOrderStore struct {
	seq    *sequence.SQLStore
	orders *repository.OrderRepo
}

// NewSQLOrderStore returns the MySQL-backed OrderStore.
func NewSQLOrderStore(seq *sequence.SQLStore, orders *repository.OrderRepo) *SQLOrderStore {
	return &SQLOrderStore{seq: seq, orders: orders}
}

type sqlOrderTx struct {
	sequence.Tx
	dbTx   *sql.Tx
	orders *repository.OrderRepo
}

func (t *sqlOrderTx) CreateOrder(ctx context.Context, o *model.Order) error {
	return t.orders.CreateTx(ctx, t.dbTx, o)
}

// RunInOrderTx runs fn inside one transaction spanning the counter row and
// the order tables, rolling back on any error.
func (s *SQLOrderStore) RunInOrderTx(ctx context.Context, fn func(tx OrderTx) error) error {
	dbTx, seqTx, err := s.seq.BeginOrderTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()
	if err := fn(&sqlOrderTx{Tx: seqTx, dbTx: dbTx, orders: s.orders}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return repository.Classify(err)
	}
	committed = true
	return nil
}

// Update rewrites a persisted order and its items in one transaction.
func (s *SQLOrderStore) Update(ctx context.Context, o *model.Order) error {
	dbTx, err := s.orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return repository.Classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()
	if err := s.orders.UpdateTx(ctx, dbTx, o); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return repository.Classify(err)
	}
	committed = true
	return nil
}

// GetByID loads a single order with its items.
func (s *SQLOrderStore) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// SetStatus updates an order's status.
func (s *SQLOrderStore) SetStatus(ctx context.Context, id uint64, status string) error {
	return s.orders.SetStatus(ctx, id, status)
}
