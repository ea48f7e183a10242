package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

// Resolver maps an opaque session token onto the caller.
type Resolver func(token string) (Principal, bool)

type AuthnOptions struct {
	// CookieName is checked when no bearer token is present.
	CookieName string

	// Optional lets anonymous requests through without a Principal.
	Optional bool

	OnError ErrorWriter
}

// AuthnMiddleware resolves the session token from the Authorization header
// or the session cookie and stores the Principal in the request context.
func AuthnMiddleware(resolve Resolver, opts AuthnOptions) Middleware {
	onError := opts.OnError
	if onError == nil {
		onError = WriteError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, opts.CookieName)

			p, ok := resolve(token)
			if !ok {
				if opts.Optional {
					next.ServeHTTP(w, r)
					return
				}
				if token != "" {
					slogx.FromContext(r.Context()).Debug("unknown session token")
				}
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				onError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := ContextWithPrincipal(r.Context(), p)
			ctx = slogx.With(ctx, "user", p.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest prefers a bearer token and falls back to the cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
