//go:build e2e

package notebook_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/notebook/pkg/notesdk"
)

// TestInvalidCredentials verifies unknown accounts and wrong passwords get
// the same answer.
func TestInvalidCredentials(t *testing.T) {
	client := setupNotebookContainer(t, nil)
	signup(t, client, "Alice", "alice@example.com", "alice-pw")

	_, errWrong := client.Login(t.Context(), "alice@example.com", "wrong-password")
	assertAPIError(t, errWrong, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)

	_, errUnknown := client.Login(t.Context(), "nobody@example.com", "alice-pw")
	assertAPIError(t, errUnknown, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)

	require.Equal(t, errWrong.Error(), errUnknown.Error())
}

// TestInvalidSessionToken verifies forged and revoked tokens are rejected.
func TestInvalidSessionToken(t *testing.T) {
	client := setupNotebookContainer(t, nil)

	_, err := client.Session("invalid-token-12345").Me(t.Context())
	assertAPIError(t, err, http.StatusUnauthorized, notesdk.ErrorCodeUnauthorized)

	alice := signup(t, client, "Alice", "alice@example.com", "alice-pw")
	require.NoError(t, alice.Logout(t.Context()))

	_, err = alice.Me(t.Context())
	assertAPIError(t, err, http.StatusUnauthorized, notesdk.ErrorCodeUnauthorized)
}

// TestDirectoryMasksEmails verifies regular users never see full addresses.
func TestDirectoryMasksEmails(t *testing.T) {
	client := setupNotebookContainer(t, nil)
	alice := signup(t, client, "Alice", "alice@example.com", "alice-pw")

	users, err := alice.Users(t.Context())
	require.NoError(t, err)
	for _, u := range users {
		require.NotContains(t, u.Email, "example.com")
		require.Nil(t, u.LastLogin)
	}
}
