// Package database opens the MySQL connection shared by all repositories.
//
// Expected schema (all timestamps stored in UTC):
//
//	orders          (id PK, order_number UNIQUE, customer_name, phone,
//	                 delivery_date DATE, delivery_time CHAR(5), status,
//	                 notes, created_at, updated_at)
//	order_items     (id PK, order_id FK, product_id NULL, name, quantity,
//	                 unit_price_cents, capacity_weight)
//	counters        (name PK, value)  -- single row "order_number"
//	settings        (name PK, limit_units, window_minutes)  -- row "production"
//	clients         (id PK, phone UNIQUE, name, order_count, last_order_at)
//	products        (id PK, name, category, price_cents, stock)
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection. When the server is
// unreachable the handle is still returned alongside the ping error: the
// application starts in offline mode and the pool reconnects on its own
// once the store is back.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return db, err
	}
	return db, nil
}
