package sqlstore

import (
	"context"
	"time"
)

type statsRepo struct {
	q dbtx
	d Dialect
}

func (r *statsRepo) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *statsRepo) CountNotes(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM notes`)
}

func (r *statsRepo) CountActiveUsersSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM user_activity WHERE created_at >= ?`, since.UTC())
}

func (r *statsRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, wrapErr(r.d, err)
}
