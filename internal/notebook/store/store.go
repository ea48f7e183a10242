package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable wraps driver errors that mean the database could not be
	// reached at all (refused, dropped or closed connections).
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite, mysql)
// implement this. Sub-repositories are exposed as methods so that a Tx can
// hand out the same repos bound to the transaction.
type Store interface {
	Users() Users
	Notes() Notes
	Activity() Activity
	Stats() Stats

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error or
	// panics the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Optimize runs driver specific maintenance (statistics, checkpoints).
	Optimize(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. Returns ErrAlreadyExists when the email
	// is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the email exactly.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// UpdatePasswordHash replaces the stored hash (used to upgrade legacy hashes).
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

type Notes interface {
	CreateNote(ctx context.Context, n domain.Note) error

	// ListNotesByOwner returns the owner's notes by updated_at, newest first.
	ListNotesByOwner(ctx context.Context, ownerID string) ([]domain.Note, error)

	// GetNote returns ErrNotFound unless the note exists AND belongs to ownerID.
	GetNote(ctx context.Context, ownerID, noteID string) (domain.Note, error)

	// UpdateNote reports whether a row matching (noteID, ownerID) was changed.
	UpdateNote(ctx context.Context, ownerID, noteID, title, content string, at time.Time) (bool, error)

	// DeleteNote reports whether a row matching (noteID, ownerID) was removed.
	DeleteNote(ctx context.Context, ownerID, noteID string) (bool, error)

	// DeleteNotesByOwner returns the number of removed rows.
	DeleteNotesByOwner(ctx context.Context, ownerID string) (int64, error)

	CountNotesByOwner(ctx context.Context, ownerID string) (int, error)

	// ListAllNotes returns every note joined with its owner, by updated_at, newest first.
	ListAllNotes(ctx context.Context) ([]domain.NoteWithOwner, error)
}

type Activity interface {
	AppendActivity(ctx context.Context, e domain.ActivityEntry) error

	// ListRecentActivity returns at most limit entries across all users, newest first.
	ListRecentActivity(ctx context.Context, limit int) ([]domain.ActivityWithUser, error)

	// ListUserActivity returns at most limit entries of one user, newest first.
	ListUserActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error)
}

type Stats interface {
	CountUsers(ctx context.Context) (int, error)
	CountNotes(ctx context.Context) (int, error)

	// CountActiveUsersSince counts distinct users with any activity at or after since.
	CountActiveUsersSince(ctx context.Context, since time.Time) (int, error)
}
