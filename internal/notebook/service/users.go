package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
	"github.com/aussiebroadwan/notebook/pkg/idx"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

type UserService struct {
	clock

	Store store.Store
}

// Create registers a user and writes the registration entry in the same
// transaction. Returns ErrDuplicateEmail when the email is already taken,
// including when a concurrent registration wins the race.
func (s *UserService) Create(ctx context.Context, name, email, password string) (string, error) {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := createUser(ctx, tx, user); err != nil {
			return err
		}
		return record(ctx, tx, user.ID, domain.ActivityRegistration,
			fmt.Sprintf("User %s registered", name), "", now)
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateEmail) {
			l.Error("failed to register user", slog.String("email", email), slogx.Err(err))
		}
		return "", mapStoreErr(err)
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return user.ID, nil
}

// createUser checks for an existing email before inserting. The UNIQUE
// constraint still backs the check for concurrent inserts.
func createUser(ctx context.Context, tx store.Tx, u domain.User) error {
	_, err := tx.Users().GetUserByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if err := tx.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	return u, mapStoreErr(err)
}

// ListAll returns every user, newest first.
func (s *UserService) ListAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	return users, mapStoreErr(err)
}

// ListVisible is ListAll as seen by a viewer of the given role. Non-admins
// get masked emails and no login timestamps.
func (s *UserService) ListVisible(ctx context.Context, viewer domain.Role) ([]domain.User, error) {
	users, err := s.ListAll(ctx)
	if err != nil || viewer == domain.RoleAdmin {
		return users, err
	}

	for i := range users {
		users[i].Email = MaskEmail(users[i].Email)
		users[i].LastLogin = nil
		users[i].PasswordHash = ""
	}
	return users, nil
}

// IsAdmin reports false for unknown emails and on store failures.
func (s *UserService) IsAdmin(ctx context.Context, email string) bool {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("admin check failed", slogx.Err(err))
		}
		return false
	}
	return u.IsAdmin()
}

// MaskEmail keeps the local part and hides the domain: "bob@x.io" becomes
// "bob@***".
func MaskEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local + "@***"
}
