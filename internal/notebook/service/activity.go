package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/idx"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

const (
	DefaultRecentActivityLimit = 50
	DefaultUserActivityLimit   = 20
	MaxActivityLimit           = 500
)

// ActivityLogError describes an audit entry that could not be written.
type ActivityLogError struct {
	UserID string
	Kind   domain.ActivityKind
	Err    error
}

func (e *ActivityLogError) Error() string {
	return fmt.Sprintf("activity log: %s for user %s: %v", e.Kind, e.UserID, e.Err)
}

func (e *ActivityLogError) Unwrap() []error { return []error{ErrActivityLog, e.Err} }

// ActivityObserver receives audit write failures that Append swallowed.
type ActivityObserver interface {
	ActivityFailed(ctx context.Context, err *ActivityLogError)
}

type ActivityObserverFunc func(ctx context.Context, err *ActivityLogError)

func (f ActivityObserverFunc) ActivityFailed(ctx context.Context, err *ActivityLogError) { f(ctx, err) }

type ActivityService struct {
	clock

	Store    store.Store
	Observer ActivityObserver // optional
}

// Append records an event outside of any transaction. It is best-effort:
// failures are logged and reported to the Observer, never returned.
func (s *ActivityService) Append(
	ctx context.Context,
	userID string,
	kind domain.ActivityKind,
	description, origin string,
) {
	entry := newEntry(userID, kind, description, origin, s.now())
	if err := s.Store.Activity().AppendActivity(ctx, entry); err != nil {
		s.report(ctx, &ActivityLogError{UserID: userID, Kind: kind, Err: err})
	}
}

func (s *ActivityService) report(ctx context.Context, lerr *ActivityLogError) {
	slogx.FromContext(ctx).Warn("activity log write failed",
		"user_id", lerr.UserID,
		"kind", lerr.Kind,
		slogx.Err(lerr.Err),
	)
	if s.Observer != nil {
		s.Observer.ActivityFailed(ctx, lerr)
	}
}

// RecentGlobal returns the newest entries across all users, joined with
// the acting user's name and email.
func (s *ActivityService) RecentGlobal(ctx context.Context, limit int) ([]domain.ActivityWithUser, error) {
	out, err := s.Store.Activity().ListRecentActivity(ctx, clampLimit(limit, DefaultRecentActivityLimit))
	return out, mapStoreErr(err)
}

// RecentForUser returns one user's newest entries. An unknown email yields
// an empty list.
func (s *ActivityService) RecentForUser(
	ctx context.Context,
	email string,
	limit int,
) ([]domain.ActivityEntry, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if err = mapStoreErr(err); errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out, err := s.Store.Activity().ListUserActivity(ctx, u.ID, clampLimit(limit, DefaultUserActivityLimit))
	return out, mapStoreErr(err)
}

// record appends an entry through the given transaction. A failure here
// aborts the surrounding mutation.
func record(
	ctx context.Context,
	tx store.Tx,
	userID string,
	kind domain.ActivityKind,
	description, origin string,
	at time.Time,
) error {
	if err := tx.Activity().AppendActivity(ctx, newEntry(userID, kind, description, origin, at)); err != nil {
		return &ActivityLogError{UserID: userID, Kind: kind, Err: err}
	}
	return nil
}

func newEntry(userID string, kind domain.ActivityKind, description, origin string, at time.Time) domain.ActivityEntry {
	return domain.ActivityEntry{
		ID:          idx.NewAt(at).String(),
		UserID:      userID,
		Kind:        kind,
		Description: description,
		IPAddress:   origin,
		CreatedAt:   at,
	}
}

func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit > MaxActivityLimit:
		return MaxActivityLimit
	default:
		return limit
	}
}
