package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
	"github.com/aussiebroadwan/notebook/pkg/idx"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

const (
	DefaultAdminEmail    = "admin@site.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminName     = "Administrator"
)

type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// WithDefaults fills empty fields from the Default* constants.
func (a AdminAccount) WithDefaults() AdminAccount {
	if a.Email == "" {
		a.Email = DefaultAdminEmail
	}
	if a.Password == "" {
		a.Password = DefaultAdminPassword
	}
	if a.Name == "" {
		a.Name = DefaultAdminName
	}
	return a
}

type BootstrapService struct {
	clock

	Store store.Store
	Admin AdminAccount
}

// EnsureAdmin creates the administrator account unless a user with that
// email already exists. It reports whether an account was created.
func (s *BootstrapService) EnsureAdmin(ctx context.Context) (bool, error) {
	l := slogx.FromContext(ctx)
	admin := s.Admin.WithDefaults()

	_, err := s.Store.Users().GetUserByEmail(ctx, admin.Email)
	switch {
	case err == nil:
		l.Debug("administrator already present", slog.String("email", admin.Email))
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, mapStoreErr(err)
	}

	hash, err := cryptox.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}

	now := s.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         admin.Name,
		Email:        admin.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return createUser(ctx, tx, user)
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost the race against another instance.
		return false, nil
	}
	if err != nil {
		l.Error("failed to create administrator", slogx.Err(err))
		return false, mapStoreErr(err)
	}

	l.Info("administrator created", slog.String("email", admin.Email))
	return true, nil
}
