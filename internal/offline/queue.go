// Package offline keeps orders taken while the store is unreachable and
// replays them when connectivity returns. The queue is a durable local
// FIFO scoped to the device: it survives process restarts but is not shared
// between terminals.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/salgaderia/pos/internal/model"
)

// Queue is the durable FIFO the sync coordinator drains. Enqueue never
// touches the network and only fails when local storage itself is broken,
// in which case it fails loudly rather than silently dropping the order.
type Queue interface {
	// Enqueue appends an order snapshot and returns the stored entry with
	// its generated local ID and enqueue timestamp.
	Enqueue(ctx context.Context, o model.Order) (*model.PendingOrder, error)
	// PeekAll returns every entry in enqueue order without removing any.
	PeekAll(ctx context.Context) ([]model.PendingOrder, error)
	// Remove deletes the entries with the given local IDs, used as each
	// replayed order succeeds.
	Remove(ctx context.Context, localIDs ...string) error
	// ReplaceAll atomically rewrites the queue contents, preserving the
	// order of the given entries.
	ReplaceAll(ctx context.Context, entries []model.PendingOrder) error
	// Len reports the number of queued entries.
	Len(ctx context.Context) (int, error)
	// Close releases the underlying storage.
	Close() error
}

// SQLiteQueue implements Queue on an embedded SQLite file. Entries are
// JSON order snapshots keyed by an autoincrement sequence, which is what
// preserves FIFO order across restarts.
type SQLiteQueue struct {
	db *sql.DB
}

// OpenSQLiteQueue opens (creating if needed) the queue database at path.
// Parent directories are created as required.
func OpenSQLiteQueue(path string) (*SQLiteQueue, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create queue directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS pending_orders (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		local_id  TEXT NOT NULL UNIQUE,
		queued_at TEXT NOT NULL,
		payload   TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init queue schema: %w", err)
	}
	return &SQLiteQueue{db: db}, nil
}

// Close releases the queue database.
func (q *SQLiteQueue) Close() error { return q.db.Close() }

// Enqueue appends an order snapshot to the queue.
func (q *SQLiteQueue) Enqueue(ctx context.Context, o model.Order) (*model.PendingOrder, error) {
	entry := model.PendingOrder{
		LocalID:  uuid.NewString(),
		QueuedAt: time.Now().UTC(),
		Order:    o,
	}
	payload, err := json.Marshal(entry.Order)
	if err != nil {
		return nil, fmt.Errorf("encode queued order: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO pending_orders (local_id, queued_at, payload) VALUES (?, ?, ?)`,
		entry.LocalID, entry.QueuedAt.Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return nil, fmt.Errorf("enqueue order: %w", err)
	}
	return &entry, nil
}

// PeekAll returns every queued entry in enqueue order. Unparsable state is
// treated as a corrupted queue: the contents are discarded with a logged
// warning and an empty queue is returned, trading the corrupted entries for
// availability.
func (q *SQLiteQueue) PeekAll(ctx context.Context) ([]model.PendingOrder, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT local_id, queued_at, payload FROM pending_orders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	defer rows.Close()

	var entries []model.PendingOrder
	for rows.Next() {
		var localID, queuedAt, payload string
		if err := rows.Scan(&localID, &queuedAt, &payload); err != nil {
			return nil, fmt.Errorf("read queue: %w", err)
		}
		var entry model.PendingOrder
		entry.LocalID = localID
		if t, err := time.Parse(time.RFC3339Nano, queuedAt); err == nil {
			entry.QueuedAt = t
		}
		if err := json.Unmarshal([]byte(payload), &entry.Order); err != nil {
			rows.Close()
			log.Printf("offline: queue state corrupted (%v), resetting to empty", err)
			if _, delErr := q.db.ExecContext(ctx, `DELETE FROM pending_orders`); delErr != nil {
				return nil, fmt.Errorf("reset corrupted queue: %w", delErr)
			}
			return nil, nil
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	return entries, nil
}

// Remove deletes the entries with the given local IDs.
func (q *SQLiteQueue) Remove(ctx context.Context, localIDs ...string) error {
	if len(localIDs) == 0 {
		return nil
	}
	query := `DELETE FROM pending_orders WHERE local_id IN (`
	args := make([]interface{}, 0, len(localIDs))
	for i, id := range localIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove queue entries: %w", err)
	}
	return nil
}

// ReplaceAll rewrites the queue contents atomically, preserving the order
// of the provided entries.
func (q *SQLiteQueue) ReplaceAll(ctx context.Context, entries []model.PendingOrder) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_orders`); err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	for _, entry := range entries {
		payload, err := json.Marshal(entry.Order)
		if err != nil {
			return fmt.Errorf("replace queue: encode entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pending_orders (local_id, queued_at, payload) VALUES (?, ?, ?)`,
			entry.LocalID, entry.QueuedAt.Format(time.RFC3339Nano), string(payload)); err != nil {
			return fmt.Errorf("replace queue: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	committed = true
	return nil
}

// Len reports the number of queued entries.
func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}
