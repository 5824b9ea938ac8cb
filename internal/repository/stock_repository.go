package repository

import (
	"context"
	"database/sql"
)

// StockRepo decrements product stock after a successful order. Stock is a
// soft inventory hint for the back office, not an admission constraint, so
// the decrement floors at zero instead of rejecting the sale.
type StockRepo struct {
	db *sql.DB
}

// NewStockRepo returns a new StockRepo bound to the given database.
func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

// Decrement reduces the stock of a catalog product by the ordered quantity,
// never going below zero. Manual lines carry no product ID and are skipped
// by the caller.
func (r *StockRepo) Decrement(ctx context.Context, productID uint64, quantity int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = GREATEST(stock - ?, 0) WHERE id = ?`,
		quantity, productID)
	if err != nil {
		return Classify(err)
	}
	return nil
}
