package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
)

const userColumns = `id, name, email, password_hash, role, last_login, created_at`

type usersRepo struct {
	q dbtx
	d Dialect
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, last_login, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), nullTime(u.LastLogin), u.CreatedAt.UTC(),
	)
	return wrapErr(r.d, err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	return u, wrapErr(r.d, err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	return u, wrapErr(r.d, err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrapErr(r.d, err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr(r.d, err)
		}
		out = append(out, u)
	}
	return out, wrapErr(r.d, rows.Err())
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.exec1(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), userID)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.exec1(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, newHash, userID)
}

// exec1 runs a single-row update and reports ErrNotFound when nothing matched.
func (r *usersRepo) exec1(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(r.d, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(r.d, err)
	}
	if n == 0 {
		return wrapErr(r.d, sql.ErrNoRows)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u         domain.User
		role      string
		lastLogin sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &lastLogin, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.ParseRole(role)
	u.LastLogin = timePtr(lastLogin)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
