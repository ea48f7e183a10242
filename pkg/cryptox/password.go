package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	// ErrPasswordMismatch is returned when a well-formed hash does not match.
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrUnknownHashFormat is returned for strings that are neither Argon2id
	// PHC hashes nor bcrypt hashes.
	ErrUnknownHashFormat = errors.New("invalid hash format: unknown algorithm")
)

// HashPassword generates a PHC-format Argon2id hash string including salt and
// parameters. The configured pepper is mixed into the input.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password+Pepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares a plaintext password against a stored hash.
//
// Argon2id PHC strings are the native format. bcrypt hashes ($2a$, $2b$,
// $2y$) written by the previous deployment are accepted too; they
// were produced without the pepper. Callers should upgrade them with
// NeedsRehash after a successful check.
func VerifyPassword(password, encodedHash string) error {
	if isBcrypt(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		if err != nil {
			return fmt.Errorf("invalid hash format: %w", err)
		}
		return nil
	}

	// $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return ErrUnknownHashFormat
	}
	if parts[2] != "v=19" {
		return errors.New("invalid hash format: wrong version")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}
	if mem == 0 || iters == 0 || par == 0 {
		return errors.New("invalid hash format: zero parameter")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}
	if len(expected) == 0 {
		return errors.New("invalid hash format: empty hash")
	}

	computed := argon2.IDKey(
		[]byte(password+Pepper()),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - decoded from our own fixed-size output
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// CheckPassword reports whether password matches encodedHash. Malformed
// hashes never match.
func CheckPassword(password, encodedHash string) bool {
	return VerifyPassword(password, encodedHash) == nil
}

// NeedsRehash reports whether encodedHash should be replaced with a fresh
// HashPassword result, either because it uses a legacy algorithm or because
// its Argon2id parameters differ from the current ones.
func NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}
	want := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$", memory, iterations, parallelism)
	return !strings.HasPrefix(encodedHash, want)
}

func isBcrypt(h string) bool {
	return strings.HasPrefix(h, "$2a$") || strings.HasPrefix(h, "$2b$") || strings.HasPrefix(h, "$2y$")
}
