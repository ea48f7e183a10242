package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/aussiebroadwan/notebook/internal/notebook/store"
)

// wrapErr translates driver errors into the store sentinels while keeping
// the original error in the chain.
func wrapErr(d Dialect, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case d.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
	case isConnectionError(err), d.IsConnectionError(err):
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	default:
		return err
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	if err.Error() == "sql: database is closed" {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
