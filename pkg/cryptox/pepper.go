package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	pepperMu sync.RWMutex
	pepper   string
)

// Pepper returns the server-wide secret mixed into every password hash. It
// is empty until LoadPepper or SetPepper is called.
func Pepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

// SetPepper replaces the active pepper. Intended for tests and for callers
// that source the secret from somewhere other than a file.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepper = p
}

// LoadPepper reads the pepper from path, generating and persisting a new one
// when the file does not exist yet. Changing the pepper invalidates every
// stored Argon2id hash, so the file must survive restarts.
func LoadPepper(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("cryptox: pepper path is empty")
	}

	p, err := loadOrGeneratePepper(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("cryptox: load pepper: %w", err)
	}

	SetPepper(p)
	return nil
}

func loadOrGeneratePepper(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}

	buf := make([]byte, keyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
		return "", err
	}
	return p, nil
}
