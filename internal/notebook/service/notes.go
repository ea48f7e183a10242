package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/idx"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

// NoteService scopes every operation to the note owner, identified by email.
// The owner lookup, the mutation and its activity entry share one
// transaction.
type NoteService struct {
	clock

	Store store.Store
}

// ownerID resolves an email inside tx. Returns ErrNotFound for unknown owners.
func ownerID(ctx context.Context, tx store.Store, email string) (string, error) {
	u, err := tx.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return "", mapStoreErr(err)
	}
	return u.ID, nil
}

func (s *NoteService) Create(ctx context.Context, ownerEmail, title, content string) (string, error) {
	now := s.now()
	noteID := idx.NewAt(now).String()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		uid, err := ownerID(ctx, tx, ownerEmail)
		if err != nil {
			return err
		}

		err = tx.Notes().CreateNote(ctx, domain.Note{
			ID:        noteID,
			Title:     title,
			Content:   content,
			UserID:    uid,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		return record(ctx, tx, uid, domain.ActivityCreateNote,
			fmt.Sprintf("Created note %q", title), "", now)
	})
	if err != nil {
		return "", s.fail(ctx, "create note", err)
	}
	return noteID, nil
}

// ListByOwner returns the owner's notes, most recently updated first. An
// unknown owner has no notes.
func (s *NoteService) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Note, error) {
	uid, err := ownerID(ctx, s.Store, ownerEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	notes, err := s.Store.Notes().ListNotesByOwner(ctx, uid)
	return notes, mapStoreErr(err)
}

// Get returns ErrNotFound when the note does not exist or has another owner.
func (s *NoteService) Get(ctx context.Context, ownerEmail, noteID string) (domain.Note, error) {
	uid, err := ownerID(ctx, s.Store, ownerEmail)
	if err != nil {
		return domain.Note{}, err
	}

	n, err := s.Store.Notes().GetNote(ctx, uid, noteID)
	return n, mapStoreErr(err)
}

// Update rewrites title and content and bumps updated_at. It reports false
// when no note with that id belongs to the owner.
func (s *NoteService) Update(ctx context.Context, ownerEmail, noteID, title, content string) (bool, error) {
	now := s.now()
	var updated bool

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		uid, err := ownerID(ctx, tx, ownerEmail)
		if err != nil {
			return err
		}

		updated, err = tx.Notes().UpdateNote(ctx, uid, noteID, title, content, now)
		if err != nil || !updated {
			return err
		}
		return record(ctx, tx, uid, domain.ActivityUpdateNote,
			fmt.Sprintf("Updated note %q", title), "", now)
	})
	return s.result(ctx, "update note", updated, err)
}

// Delete reports false when no note with that id belongs to the owner.
func (s *NoteService) Delete(ctx context.Context, ownerEmail, noteID string) (bool, error) {
	now := s.now()
	var deleted bool

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		uid, err := ownerID(ctx, tx, ownerEmail)
		if err != nil {
			return err
		}

		deleted, err = tx.Notes().DeleteNote(ctx, uid, noteID)
		if err != nil || !deleted {
			return err
		}
		return record(ctx, tx, uid, domain.ActivityDeleteNote,
			fmt.Sprintf("Deleted note #%s", noteID), "", now)
	})
	return s.result(ctx, "delete note", deleted, err)
}

// DeleteAll removes every note of the owner. The activity entry is written
// even when the owner had no notes.
func (s *NoteService) DeleteAll(ctx context.Context, ownerEmail string) (bool, error) {
	now := s.now()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		uid, err := ownerID(ctx, tx, ownerEmail)
		if err != nil {
			return err
		}

		n, err := tx.Notes().DeleteNotesByOwner(ctx, uid)
		if err != nil {
			return err
		}
		slogx.FromContext(ctx).Debug("deleted notes", slog.String("user_id", uid), slog.Int64("count", n))

		return record(ctx, tx, uid, domain.ActivityDeleteAllNotes, "Deleted all notes", "", now)
	})
	return s.result(ctx, "delete all notes", err == nil, err)
}

// CountByOwner is 0 for unknown owners.
func (s *NoteService) CountByOwner(ctx context.Context, ownerEmail string) (int, error) {
	uid, err := ownerID(ctx, s.Store, ownerEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	n, err := s.Store.Notes().CountNotesByOwner(ctx, uid)
	return n, mapStoreErr(err)
}

// ListAll returns every note with its owner. Callers gate this to admins.
func (s *NoteService) ListAll(ctx context.Context) ([]domain.NoteWithOwner, error) {
	notes, err := s.Store.Notes().ListAllNotes(ctx)
	return notes, mapStoreErr(err)
}

// result folds an unknown owner into a plain false.
func (s *NoteService) result(ctx context.Context, op string, ok bool, err error) (bool, error) {
	if err == nil {
		return ok, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, s.fail(ctx, op, err)
}

func (s *NoteService) fail(ctx context.Context, op string, err error) error {
	if !errors.Is(err, ErrNotFound) {
		slogx.FromContext(ctx).Error("failed to "+op, slogx.Err(err))
	}
	return mapStoreErr(err)
}
