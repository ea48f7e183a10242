//go:build e2e

package notebook_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/notebook/pkg/notesdk"
)

// productionRateLimits undoes the relaxed overrides.
var productionRateLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "",
	"RATELIMIT_STRICT_WINDOW_SEC": "",
	"RATELIMIT_STRICT_BURST":      "",
	"RATELIMIT_MODERATE_REQUESTS": "",
	"RATELIMIT_MODERATE_BURST":    "",
}

// TestRateLimitLoginEndpoint verifies repeated logins for one email are
// throttled after five attempts.
func TestRateLimitLoginEndpoint(t *testing.T) {
	client := setupNotebookContainer(t, productionRateLimits)

	for i := range 5 {
		_, err := client.Login(t.Context(), "victim@example.com", "guess")
		assertAPIError(t, err, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)
		require.False(t, notesdk.IsCode(err, notesdk.ErrorCodeRateLimitExceeded), "request %d", i+1)
	}

	_, err := client.Login(t.Context(), "victim@example.com", "guess")
	assertAPIError(t, err, http.StatusTooManyRequests, notesdk.ErrorCodeRateLimitExceeded)

	// A different email from the same address has its own budget.
	_, err = client.Login(t.Context(), "other@example.com", "guess")
	assertAPIError(t, err, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)
}

// TestRateLimitRegisterEndpoint verifies registration is throttled per IP.
func TestRateLimitRegisterEndpoint(t *testing.T) {
	client := setupNotebookContainer(t, productionRateLimits)

	var lastErr error
	for range 6 {
		lastErr = client.Register(t.Context(), "", "bad", "")
	}
	assertAPIError(t, lastErr, http.StatusTooManyRequests, notesdk.ErrorCodeRateLimitExceeded)
}
