// Package session keeps the table of live session tokens. Sessions live only
// in process memory: a restart logs everybody out, and there is no expiry.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
)

// maxAttempts bounds token regeneration on collision. With 256 bits of
// entropy a single retry is already unreachable in practice.
const maxAttempts = 4

var ErrTokenSpace = errors.New("session: could not allocate a unique token")

// TokenSource produces opaque tokens. Tests swap it to force collisions.
type TokenSource func() (string, error)

func defaultTokenSource() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize256)
}

// Manager maps tokens to identities. The zero value is not usable; call New.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	newToken TokenSource
}

func New() *Manager {
	return &Manager{
		sessions: make(map[string]domain.Session),
		newToken: defaultTokenSource,
	}
}

// NewWithSource is New with a custom token generator.
func NewWithSource(src TokenSource) *Manager {
	m := New()
	m.newToken = src
	return m
}

// Create issues a fresh token bound to email and role.
func (m *Manager) Create(email string, role domain.Role) (string, error) {
	for range maxAttempts {
		token, err := m.newToken()
		if err != nil {
			return "", fmt.Errorf("session: generate token: %w", err)
		}
		if token == "" {
			continue
		}

		m.mu.Lock()
		if _, taken := m.sessions[token]; !taken {
			m.sessions[token] = domain.Session{Email: email, Role: role}
			m.mu.Unlock()
			return token, nil
		}
		m.mu.Unlock()
	}
	return "", ErrTokenSpace
}

// Resolve looks a token up. Empty or unknown tokens report false.
func (m *Manager) Resolve(token string) (domain.Session, bool) {
	if token == "" {
		return domain.Session{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	return s, ok
}

// Revoke forgets a token. Revoking an unknown token is a no-op.
func (m *Manager) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close drops every session. Called on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.sessions)
}
