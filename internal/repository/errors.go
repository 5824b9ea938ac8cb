// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// and handlers to distinguish between failure scenarios: a store that is
// unreachable triggers the offline queuing path, while a transaction
// conflict is safe to retry from scratch.
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
)

// ErrStoreUnavailable is returned when the store cannot be reached at all.
// Order creation treats it as the signal to queue the order locally instead
// of failing the operator.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrTxConflict is returned when a transaction could not commit because of
// lock contention. The whole allocate-and-persist operation is safe to
// retry from scratch; nothing was applied.
var ErrTxConflict = errors.New("transaction conflict")

// ErrOrderNotFound is returned when an order lookup matches no row.
var ErrOrderNotFound = errors.New("order not found")

// ErrSettingsNotFound is returned when production settings have never been
// saved. Capacity evaluation treats this as "no limit configured" and
// fails open.
var ErrSettingsNotFound = errors.New("production settings not found")

// MySQL server error numbers for lock contention.
const (
	mysqlErrLockDeadlock    = 1213
	mysqlErrLockWaitTimeout = 1205
)

// Classify wraps a raw database error with the sentinel that describes it,
// so callers can branch with errors.Is without knowing driver internals.
// Connectivity failures become ErrStoreUnavailable, lock contention becomes
// ErrTxConflict and anything else passes through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrLockDeadlock, mysqlErrLockWaitTimeout:
			return errors.Join(ErrTxConflict, err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}
