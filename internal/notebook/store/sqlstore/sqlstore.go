// Package sqlstore implements store.Store on top of database/sql. The SQL is
// written in the dialect common to SQLite and MySQL (positional "?"
// placeholders, no RETURNING); each driver package supplies a Dialect for the
// bits that differ.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/notebook/internal/notebook/store"
)

// Dialect captures the driver specific behaviour the shared queries need.
type Dialect interface {
	Name() string

	// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
	IsUniqueViolation(err error) bool

	// IsConnectionError reports whether err means the server is unreachable.
	IsConnectionError(err error) bool

	// OptimizeStatements are executed, in order, by Store.Optimize.
	OptimizeStatements() []string
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the shared implementation. Driver packages embed it and add
// ApplyMigrations.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

// DB exposes the pool for migration tooling.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return wrapErr(s.dialect, s.db.PingContext(ctx))
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(s.dialect, err)
	}
	return newTx(tx, s.dialect), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return wrapErr(s.dialect, tx.Commit())
}

// Optimize runs the dialect's maintenance statements.
func (s *Store) Optimize(ctx context.Context) error {
	for _, stmt := range s.dialect.OptimizeStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %s: %w", s.dialect.Name(), stmt, wrapErr(s.dialect, err))
		}
	}
	return nil
}

func (s *Store) Users() store.Users       { return &usersRepo{q: s.db, d: s.dialect} }
func (s *Store) Notes() store.Notes       { return &notesRepo{q: s.db, d: s.dialect} }
func (s *Store) Activity() store.Activity { return &activityRepo{q: s.db, d: s.dialect} }
func (s *Store) Stats() store.Stats       { return &statsRepo{q: s.db, d: s.dialect} }
