package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/store"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrDuplicateEmail     = errors.New("duplicate_email")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidInput       = errors.New("invalid_input")
	ErrUnavailable        = errors.New("service_unavailable")

	// ErrActivityLog marks a failed audit write. Best-effort appends deliver
	// it to the ActivityObserver only; transactional writes (note changes,
	// registration, successful login) return it wrapped in *ActivityLogError
	// and roll back.
	ErrActivityLog = errors.New("activity_log_failed")
)

// mapStoreErr lifts store sentinels into service errors, keeping the cause.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}

// clock is embedded by services that stamp rows.
type clock struct {
	Now func() time.Time
}

func (c clock) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}
