package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/salgaderia/pos/internal/model"
)

// OrderRepo provides data access to the orders and order_items tables. All
// timestamp fields are stored in UTC. Methods with a Tx suffix run inside a
// caller-supplied transaction; the caller must commit or roll back.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so services can open transactions that
// span the counter and the orders table.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new order and its line items within the scope of an
// existing transaction. The order must already carry its allocated number
// and status. It populates the generated ID on the provided order.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders
	           (order_number, customer_name, phone, delivery_date, delivery_time, status, notes, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	result, err := tx.ExecContext(ctx, q,
		o.OrderNumber, o.CustomerName, o.Phone, o.DeliveryDate, o.DeliveryTime, o.Status, o.Notes)
	if err != nil {
		return Classify(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Classify(err)
	}
	o.ID = uint64(id)
	if err := r.insertItemsTx(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	return nil
}

// insertItemsTx bulk-inserts line items for an order. Passing an empty
// slice has no effect and returns nil.
func (r *OrderRepo) insertItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, product_id, name, quantity, unit_price_cents, capacity_weight) VALUES `
	args := make([]interface{}, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, orderID, it.ProductID, it.Name, it.Quantity, it.UnitPriceCents, it.CapacityWeight)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return Classify(err)
	}
	return nil
}

// MaxNumberTx returns the maximum order_number among persisted orders, or 0
// when none exist. It runs inside the caller's transaction so the sequence
// allocator sees a value consistent with the counter it is about to write.
func (r *OrderRepo) MaxNumberTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var max int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(order_number), 0) FROM orders`).Scan(&max)
	if err != nil {
		return 0, Classify(err)
	}
	return max, nil
}

// MaxNumber is the non-transactional variant used by the display-only peek.
func (r *OrderRepo) MaxNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(order_number), 0) FROM orders`).Scan(&max)
	if err != nil {
		return 0, Classify(err)
	}
	return max, nil
}

// ListByDate returns all non-cancelled orders whose delivery date equals the
// given "2006-01-02" date, items included, ordered by delivery time. The
// capacity evaluator sums line weights over this result.
func (r *OrderRepo) ListByDate(ctx context.Context, date string) ([]model.Order, error) {
	const q = `SELECT id, order_number, customer_name, phone, delivery_date, delivery_time, status, notes, created_at, updated_at
	           FROM orders
	           WHERE delivery_date = ? AND status <> ?
	           ORDER BY delivery_time, id`
	rows, err := r.db.QueryContext(ctx, q, date, model.StatusCancelled)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var orders []model.Order
	ids := make([]uint64, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.Phone,
			&o.DeliveryDate, &o.DeliveryTime, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, Classify(err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}
	if len(orders) == 0 {
		return orders, nil
	}
	itemsByOrder, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// itemsForOrders loads line items for a set of orders in one query.
func (r *OrderRepo) itemsForOrders(ctx context.Context, ids []uint64) (map[uint64][]model.OrderItem, error) {
	query := `SELECT order_id, product_id, name, quantity, unit_price_cents, capacity_weight
	          FROM order_items WHERE order_id IN (`
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ") ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	out := make(map[uint64][]model.OrderItem, len(ids))
	for rows.Next() {
		var orderID uint64
		var it model.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents, &it.CapacityWeight); err != nil {
			return nil, Classify(err)
		}
		out[orderID] = append(out[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// GetByID returns a single order with its items. ErrOrderNotFound is
// returned when no order with the given ID exists.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT id, order_number, customer_name, phone, delivery_date, delivery_time, status, notes, created_at, updated_at
	           FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.Phone,
		&o.DeliveryDate, &o.DeliveryTime, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, Classify(err)
	}
	itemsByOrder, err := r.itemsForOrders(ctx, []uint64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = itemsByOrder[o.ID]
	return &o, nil
}

// UpdateTx rewrites an order's mutable fields and replaces its line items
// within an existing transaction. The order number is never touched: edits
// keep the identity assigned at creation.
func (r *OrderRepo) UpdateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `UPDATE orders
	           SET customer_name = ?, phone = ?, delivery_date = ?, delivery_time = ?, status = ?, notes = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	result, err := tx.ExecContext(ctx, q,
		o.CustomerName, o.Phone, o.DeliveryDate, o.DeliveryTime, o.Status, o.Notes, o.ID)
	if err != nil {
		return Classify(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Classify(err)
	}
	if affected == 0 {
		// The UPDATE may legitimately match without changing anything, so
		// verify existence explicitly before reporting not-found.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, o.ID).Scan(&exists); err != nil {
			return Classify(err)
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
		return Classify(err)
	}
	return r.insertItemsTx(ctx, tx, o.ID, o.Items)
}

// SetStatus updates only the status of an order. Used by cancellation,
// which releases the order's capacity weight from every window simply by
// virtue of ListByDate filtering cancelled orders out.
func (r *OrderRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
	if err != nil {
		return Classify(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Classify(err)
	}
	if affected == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, id).Scan(&exists); err != nil {
			return Classify(err)
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
	}
	return nil
}
