package sqlstore

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/notebook/internal/notebook/store"
)

type txStore struct {
	tx *sql.Tx
	d  Dialect
}

func newTx(tx *sql.Tx, d Dialect) *txStore {
	return &txStore{tx: tx, d: d}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the caller commits or rolls back and the pool stays open.
func (t *txStore) Close() error { return nil }

// Ping is a no-op, the transaction already holds a live connection.
func (t *txStore) Ping(ctx context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Optimize(ctx context.Context) error { return nil }

func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Users() store.Users       { return &usersRepo{q: t.tx, d: t.d} }
func (t *txStore) Notes() store.Notes       { return &notesRepo{q: t.tx, d: t.d} }
func (t *txStore) Activity() store.Activity { return &activityRepo{q: t.tx, d: t.d} }
func (t *txStore) Stats() store.Stats       { return &statsRepo{q: t.tx, d: t.d} }
