package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	SetPepper("test-pepper")
	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"cyrillic password", "пароль-секрет"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, VerifyPassword(tt.password, hash))
			require.True(t, CheckPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.True(t, CheckPassword("samepassword", hash1))
	require.True(t, CheckPassword("samepassword", hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password",
		"Correct-Password",
		"correct-password ",
		"",
		"correct-passwor",
		strings.Repeat("x", 10000),
	} {
		err := VerifyPassword(wrong, hash)
		require.ErrorIs(t, err, ErrPasswordMismatch)
		require.False(t, CheckPassword(wrong, hash))
	}
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"plain text", "not-a-hash"},
		{"wrong algorithm", "$scrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"zero parallelism", "$argon2id$v=19$m=19456,t=2,p=0$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"empty hash part", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"truncated bcrypt", "$2b$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				require.Error(t, VerifyPassword("test-password", tt.invalidHash))
				require.False(t, CheckPassword("test-password", tt.invalidHash))
			})
		})
	}
}

func TestVerifyPassword_PepperChangesOutcome(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	SetPepper("another-pepper")
	defer SetPepper("test-pepper")

	require.ErrorIs(t, VerifyPassword("secret", hash), ErrPasswordMismatch)
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, VerifyPassword("admin123", string(legacy)))
	require.ErrorIs(t, VerifyPassword("admin124", string(legacy)), ErrPasswordMismatch)
	require.True(t, NeedsRehash(string(legacy)))
}

func TestNeedsRehash(t *testing.T) {
	current, err := HashPassword("pw")
	require.NoError(t, err)

	require.False(t, NeedsRehash(current))
	require.True(t, NeedsRehash("$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"))
	require.True(t, NeedsRehash("$2a$12$abcdefghijklmnopqrstuv"))
	require.True(t, NeedsRehash(""))
}

func TestLoadPepper(t *testing.T) {
	defer SetPepper("test-pepper")

	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	require.NoError(t, LoadPepper(path))
	first := Pepper()
	require.NotEmpty(t, first)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, string(data))

	// A second load must reuse the persisted value.
	SetPepper("")
	require.NoError(t, LoadPepper(path))
	require.Equal(t, first, Pepper())

	require.Error(t, LoadPepper("  "))
}
