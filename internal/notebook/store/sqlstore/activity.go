package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
)

type activityRepo struct {
	q dbtx
	d Dialect
}

func (r *activityRepo) AppendActivity(ctx context.Context, e domain.ActivityEntry) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_activity (id, user_id, activity_type, description, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(e.Kind), e.Description, nullString(e.IPAddress), e.CreatedAt.UTC(),
	)
	return wrapErr(r.d, err)
}

func (r *activityRepo) ListRecentActivity(ctx context.Context, limit int) ([]domain.ActivityWithUser, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.activity_type, a.description, a.ip_address, a.created_at,
		        u.name, u.email
		 FROM user_activity a
		 JOIN users u ON u.id = a.user_id
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, wrapErr(r.d, err)
	}
	defer rows.Close()

	var out []domain.ActivityWithUser
	for rows.Next() {
		var a domain.ActivityWithUser
		e, err := scanActivity(rows, &a.UserName, &a.UserEmail)
		if err != nil {
			return nil, wrapErr(r.d, err)
		}
		a.ActivityEntry = e
		out = append(out, a)
	}
	return out, wrapErr(r.d, rows.Err())
}

func (r *activityRepo) ListUserActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.activity_type, a.description, a.ip_address, a.created_at
		 FROM user_activity a
		 WHERE a.user_id = ?
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, wrapErr(r.d, err)
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, wrapErr(r.d, err)
		}
		out = append(out, e)
	}
	return out, wrapErr(r.d, rows.Err())
}

func scanActivity(s scanner, extra ...any) (domain.ActivityEntry, error) {
	var (
		e    domain.ActivityEntry
		kind string
		ip   sql.NullString
		at   time.Time
	)
	dest := append([]any{&e.ID, &e.UserID, &kind, &e.Description, &ip, &at}, extra...)
	if err := s.Scan(dest...); err != nil {
		return domain.ActivityEntry{}, err
	}
	e.Kind = domain.ActivityKind(kind)
	e.IPAddress = ip.String
	e.CreatedAt = at.UTC()
	return e, nil
}
