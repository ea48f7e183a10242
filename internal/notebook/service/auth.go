package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/session"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

type LoginResult struct {
	Email string
	Role  domain.Role
	Token string
}

type AuthService struct {
	clock

	Store    store.Store
	Users    *UserService
	Activity *ActivityService
	Sessions *session.Manager
}

// Register validates the fields and creates a regular user.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	case !validEmail(email):
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	_, err := s.Users.Create(ctx, name, email, password)
	return err
}

// Login checks the credentials and issues a session. Unknown emails and
// wrong passwords are reported as ErrUserNotFound and ErrInvalidCredentials
// respectively; only the latter leaves a failed_login entry.
func (s *AuthService) Login(ctx context.Context, email, password, origin string) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrUserNotFound
		}
		return LoginResult{}, mapStoreErr(err)
	}

	if !cryptox.CheckPassword(password, u.PasswordHash) {
		l.Info("failed login", slog.String("user_id", u.ID))
		s.Activity.Append(ctx, u.ID, domain.ActivityFailedLogin, "Failed login attempt", origin)
		return LoginResult{}, ErrInvalidCredentials
	}

	// Hash outside the transaction; argon2 is slow.
	var upgraded string
	if cryptox.NeedsRehash(u.PasswordHash) {
		if upgraded, err = cryptox.HashPassword(password); err != nil {
			l.Warn("failed to upgrade legacy password hash", slogx.Err(err))
			upgraded = ""
		}
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
			return err
		}
		if upgraded != "" {
			if err := tx.Users().UpdatePasswordHash(ctx, u.ID, upgraded); err != nil {
				return err
			}
		}
		return record(ctx, tx, u.ID, domain.ActivityLogin, "User logged in", origin, now)
	})
	if err != nil {
		l.Error("failed to record login", slog.String("user_id", u.ID), slogx.Err(err))
		return LoginResult{}, mapStoreErr(err)
	}
	if upgraded != "" {
		l.Info("upgraded legacy password hash", slog.String("user_id", u.ID))
	}

	token, err := s.Sessions.Create(u.Email, u.Role)
	if err != nil {
		return LoginResult{}, err
	}

	l.Info("user logged in", slog.String("user_id", u.ID))
	return LoginResult{Email: u.Email, Role: u.Role, Token: token}, nil
}

// Logout revokes the token. Unknown tokens are ignored.
func (s *AuthService) Logout(token string) {
	s.Sessions.Revoke(token)
}

func (s *AuthService) Resolve(token string) (domain.Session, bool) {
	return s.Sessions.Resolve(token)
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, host, _ := strings.Cut(email, "@")
	return strings.Contains(host, ".") && !strings.HasSuffix(host, ".")
}
