package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
)

const noteColumns = `n.id, n.title, n.content, n.user_id, n.created_at, n.updated_at`

type notesRepo struct {
	q dbtx
	d Dialect
}

func (r *notesRepo) CreateNote(ctx context.Context, n domain.Note) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, n.UserID, n.CreatedAt.UTC(), n.UpdatedAt.UTC(),
	)
	return wrapErr(r.d, err)
}

func (r *notesRepo) ListNotesByOwner(ctx context.Context, ownerID string) ([]domain.Note, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes n
		 WHERE n.user_id = ?
		 ORDER BY n.updated_at DESC, n.id DESC`, ownerID)
	if err != nil {
		return nil, wrapErr(r.d, err)
	}
	defer rows.Close()

	var out []domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, wrapErr(r.d, err)
		}
		out = append(out, n)
	}
	return out, wrapErr(r.d, rows.Err())
}

func (r *notesRepo) GetNote(ctx context.Context, ownerID, noteID string) (domain.Note, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE n.id = ? AND n.user_id = ?`, noteID, ownerID)
	n, err := scanNote(row)
	return n, wrapErr(r.d, err)
}

func (r *notesRepo) UpdateNote(
	ctx context.Context,
	ownerID, noteID, title, content string,
	at time.Time,
) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		title, content, at.UTC(), noteID, ownerID,
	)
	return affected(r.d, res, err)
}

func (r *notesRepo) DeleteNote(ctx context.Context, ownerID, noteID string) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`, noteID, ownerID)
	return affected(r.d, res, err)
}

func (r *notesRepo) DeleteNotesByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ?`, ownerID)
	if err != nil {
		return 0, wrapErr(r.d, err)
	}
	n, err := res.RowsAffected()
	return n, wrapErr(r.d, err)
}

func (r *notesRepo) CountNotesByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = ?`, ownerID).Scan(&n)
	return n, wrapErr(r.d, err)
}

func (r *notesRepo) ListAllNotes(ctx context.Context) ([]domain.NoteWithOwner, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+noteColumns+`, u.name, u.email
		 FROM notes n
		 JOIN users u ON u.id = n.user_id
		 ORDER BY n.updated_at DESC, n.id DESC`)
	if err != nil {
		return nil, wrapErr(r.d, err)
	}
	defer rows.Close()

	var out []domain.NoteWithOwner
	for rows.Next() {
		var n domain.NoteWithOwner
		if err := rows.Scan(
			&n.ID, &n.Title, &n.Content, &n.UserID, &n.CreatedAt, &n.UpdatedAt,
			&n.OwnerName, &n.OwnerEmail,
		); err != nil {
			return nil, wrapErr(r.d, err)
		}
		n.CreatedAt, n.UpdatedAt = n.CreatedAt.UTC(), n.UpdatedAt.UTC()
		out = append(out, n)
	}
	return out, wrapErr(r.d, rows.Err())
}

func scanNote(s scanner) (domain.Note, error) {
	var n domain.Note
	if err := s.Scan(&n.ID, &n.Title, &n.Content, &n.UserID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return domain.Note{}, err
	}
	n.CreatedAt, n.UpdatedAt = n.CreatedAt.UTC(), n.UpdatedAt.UTC()
	return n, nil
}
