package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/notebook/internal/notebook/store/sqlstore"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the SQLite backed store.Store.
type Store struct {
	*sqlstore.Store
	dsn string
}

// NewStore opens the database at path. ":memory:" gives a private in-memory
// database, which is what the tests use.
func NewStore(path string) (*Store, error) {
	dsn := DSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every pooled connection to ":memory:" would be a separate database.
	if isMemory(path) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	return &Store{
		Store: sqlstore.New(db, dialect{}),
		dsn:   dsn,
	}, nil
}

// DSN builds a modernc connection string with foreign keys enforced on every
// connection, a busy timeout, WAL for file databases, and times written in a
// lexically sortable format.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if !isMemory(path) {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

type dialect struct{}

func (dialect) Name() string { return "sqlite" }

func (dialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (dialect) IsConnectionError(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB:
		return true
	}
	return false
}

func (dialect) OptimizeStatements() []string {
	return []string{
		`PRAGMA optimize`,
		`PRAGMA wal_checkpoint(TRUNCATE)`,
	}
}
