package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/notebook/api/notebook" // Swagger docs
	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/i18n"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/internal/notebook/session"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

const SessionCookieName = "session_token"

type Options struct {
	BuildVersion   string
	RequestTimeout time.Duration

	// CookieSecure marks the session cookie Secure; enable behind TLS.
	CookieSecure bool

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the socket peer is the client.
	TrustedProxies httpx.TrustedProxies
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	opts      Options
	startTime time.Time
	logger    *slog.Logger
	store     store.Store
	sessions  *session.Manager
	resp      responder

	AuthService     *service.AuthService
	UserService     *service.UserService
	NoteService     *service.NoteService
	ActivityService *service.ActivityService
	AdminService    *service.AdminService
}

func NewRouter(
	st store.Store,
	sessions *session.Manager,
	tr *i18n.Translator,
	logger *slog.Logger,
	opts Options,
) *Router {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		opts:      opts,
		startTime: time.Now(),
		logger:    logger,
		store:     st,
		sessions:  sessions,
		resp:      responder{tr: tr},
	}

	r.middlewares = []httpx.Middleware{
		httpx.ClientIPMiddleware(opts.TrustedProxies),
		slogx.HTTPMiddleware(r.logger),
		middleware.Recoverer,
		middleware.Timeout(opts.RequestTimeout),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerNotes()
	r.registerDirectory()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Notebook API
//	@version		0.1.0
//	@description	Multi-user notes with an audit trail of account and note activity.
//	@description
//	@description				Sessions are opaque tokens issued by /v1/login. Send them as the session_token cookie or as a bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/notebook
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// resolve adapts the session table to httpx.
func (r *Router) resolve(token string) (httpx.Principal, bool) {
	if token == "" {
		return httpx.Principal{}, false
	}
	s, ok := r.sessions.Resolve(token)
	if !ok {
		return httpx.Principal{}, false
	}
	return httpx.Principal{Subject: s.Email, Role: string(s.Role)}, true
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.resolve, httpx.AuthnOptions{
		CookieName: SessionCookieName,
		OnError:    r.resp.code,
	})
}

func (r *Router) limit(cfg httpx.RateLimitConfig) httpx.RateLimitConfig {
	cfg.OnLimit = r.resp.code
	return cfg
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Auth:         r.AuthService,
		Users:        r.UserService,
		Notes:        r.NoteService,
		CookieSecure: r.opts.CookieSecure,
		resp:         r.resp,
	}

	// Registration and login are the brute force targets.
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limit(httpx.StrictLimit)),
		),
	)
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndFormField(r.limit(httpx.StrictLimit), "email"),
		),
	)

	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(r.limit(httpx.ModerateLimit)),
		),
	)
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.authn(),
			httpx.RateLimitByUser(r.limit(httpx.LenientLimit)),
		),
	)
}

func (r *Router) registerNotes() {
	h := &NotesHandler{Notes: r.NoteService, resp: r.resp}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn(),
			httpx.RateLimitByUser(r.limit(httpx.LenientLimit)),
		)
	}

	r.Mux.Handle("GET /v1/notes", secured(h.HandleList))
	r.Mux.Handle("POST /v1/notes", secured(h.HandleCreate))
	r.Mux.Handle("DELETE /v1/notes", secured(h.HandleDeleteAll))
	r.Mux.Handle("GET /v1/notes/stats", secured(h.HandleCount))
	r.Mux.Handle("GET /v1/notes/{id}", secured(h.HandleGet))
	r.Mux.Handle("PUT /v1/notes/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/notes/{id}", secured(h.HandleDelete))
}

func (r *Router) registerDirectory() {
	h := &DirectoryHandler{Users: r.UserService, Activity: r.ActivityService, resp: r.resp}

	r.Mux.Handle("GET /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleUsers),
			r.authn(),
			httpx.RateLimitByUser(r.limit(httpx.ModerateLimit)),
		),
	)
	r.Mux.Handle("GET /v1/activity",
		httpx.Chain(http.HandlerFunc(h.HandleActivity),
			r.authn(),
			httpx.RateLimitByUser(r.limit(httpx.LenientLimit)),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		Admin:    r.AdminService,
		Activity: r.ActivityService,
		Notes:    r.NoteService,
		resp:     r.resp,
	}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn(),
			httpx.RequireRole(r.resp.code, string(domain.RoleAdmin)),
			httpx.RateLimitByUser(r.limit(httpx.ModerateLimit)),
		)
	}

	r.Mux.Handle("GET /v1/admin/stats", admin(h.HandleStats))
	r.Mux.Handle("GET /v1/admin/activity", admin(h.HandleActivity))
	r.Mux.Handle("GET /v1/admin/notes", admin(h.HandleNotes))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.opts.BuildVersion),
			httpx.RateLimitByIP(r.limit(httpx.PublicLimit)),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.opts.BuildVersion, r.store),
			httpx.RateLimitByIP(r.limit(httpx.PublicLimit)),
		),
	)
}
