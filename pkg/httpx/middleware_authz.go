package httpx

import (
	"net/http"
	"slices"
)

// RequireRole lets the request through only when the Principal holds one of
// the given roles. Must run after AuthnMiddleware.
func RequireRole(onError ErrorWriter, roles ...string) Middleware {
	if onError == nil {
		onError = WriteError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				onError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(roles, p.Role) {
				onError(w, r, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
