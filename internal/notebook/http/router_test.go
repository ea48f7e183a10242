package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	nbhttp "github.com/aussiebroadwan/notebook/internal/notebook/http"
	"github.com/aussiebroadwan/notebook/internal/notebook/i18n"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/internal/notebook/session"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/internal/notebook/store/drivers/sqlite"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/notesdk"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("http-test-pepper")
	m.Run()
}

type testServer struct {
	*httptest.Server
	client   *notesdk.Client
	store    store.Store
	sessions *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nbhttp.Options{BuildVersion: "test"})
}

func newTestServerWith(t *testing.T, opts nbhttp.Options) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	_, err = (&service.BootstrapService{Store: st}).EnsureAdmin(context.Background())
	require.NoError(t, err)

	sessions := session.New()
	users := &service.UserService{Store: st}
	activity := &service.ActivityService{Store: st}

	r := nbhttp.NewRouter(st, sessions, i18n.MustNew(), slogx.Discard(), opts)
	r.UserService = users
	r.NoteService = &service.NoteService{Store: st}
	r.ActivityService = activity
	r.AdminService = &service.AdminService{Store: st, Activity: activity}
	r.AuthService = &service.AuthService{Store: st, Users: users, Activity: activity, Sessions: sessions}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, client: notesdk.New(srv.URL), store: st, sessions: sessions}
}

func (s *testServer) signup(t *testing.T, name, email string) *notesdk.Session {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, s.client.Register(ctx, name, email, "pw-"+name))
	sess, err := s.client.Login(ctx, email, "pw-"+name)
	require.NoError(t, err)
	return sess
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *notesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

func TestNotesLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	alice := srv.signup(t, "Alice", "alice@example.com")
	require.Equal(t, "user", alice.Role)

	id, err := alice.CreateNote(ctx, "T", "C")
	require.NoError(t, err)

	notes, err := alice.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, id, notes[0].ID)

	require.NoError(t, alice.UpdateNote(ctx, id, "T2", "C2"))
	n, err := alice.GetNote(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "T2", n.Title)
	require.Equal(t, "C2", n.Content)

	count, err := alice.NoteCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	me, err := alice.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice", me.Name)
	require.Equal(t, 1, me.NoteCount)
	require.NotNil(t, me.LastLogin)

	require.NoError(t, alice.DeleteNote(ctx, id))
	requireCode(t, alice.DeleteNote(ctx, id), http.StatusNotFound, notesdk.ErrorCodeNotFound)

	activity, err := alice.Activity(ctx, 0)
	require.NoError(t, err)
	types := make([]string, len(activity))
	for i, a := range activity {
		types[i] = a.Type
	}
	require.Equal(t, []string{"delete_note", "update_note", "create_note", "login", "registration"}, types)
	require.NotNil(t, activity[3].IPAddress)
	require.Nil(t, activity[2].IPAddress)

	require.NoError(t, alice.DeleteAllNotes(ctx))

	require.NoError(t, alice.Logout(ctx))
	_, err = alice.Me(ctx)
	requireCode(t, err, http.StatusUnauthorized, notesdk.ErrorCodeUnauthorized)
}

func TestNotesAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	alice := srv.signup(t, "Alice", "alice@example.com")
	bob := srv.signup(t, "Bob", "bob@example.com")

	id, err := alice.CreateNote(ctx, "private", "secret")
	require.NoError(t, err)

	_, err = bob.GetNote(ctx, id)
	requireCode(t, err, http.StatusNotFound, notesdk.ErrorCodeNotFound)
	requireCode(t, bob.UpdateNote(ctx, id, "x", "y"), http.StatusNotFound, notesdk.ErrorCodeNotFound)
	requireCode(t, bob.DeleteNote(ctx, id), http.StatusNotFound, notesdk.ErrorCodeNotFound)
	require.NoError(t, bob.DeleteAllNotes(ctx))

	notes, err := bob.ListNotes(ctx)
	require.NoError(t, err)
	require.Empty(t, notes)

	n, err := alice.GetNote(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "secret", n.Content)
}

func TestRegisterErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()

	require.NoError(t, srv.client.Register(ctx, "Carol", "carol@example.com", "pw"))
	requireCode(t, srv.client.Register(ctx, "Carol", "carol@example.com", "pw"), http.StatusConflict, notesdk.ErrorCodeDuplicateEmail)
	requireCode(t, srv.client.Register(ctx, "", "x@example.com", "pw"), http.StatusBadRequest, notesdk.ErrorCodeInvalidInput)
	requireCode(t, srv.client.Register(ctx, "X", "bad-email", "pw"), http.StatusBadRequest, notesdk.ErrorCodeInvalidInput)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	require.NoError(t, srv.client.Register(ctx, "Dan", "dan@example.com", "right"))

	_, errUnknown := srv.client.Login(ctx, "nobody@example.com", "right")
	_, errWrong := srv.client.Login(ctx, "dan@example.com", "wrong")

	requireCode(t, errUnknown, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)
	requireCode(t, errWrong, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrong.Error())
	require.Zero(t, srv.sessions.Len())
}

func TestInvalidNoteBody(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "Alice", "alice@example.com")

	_, err := alice.CreateNote(t.Context(), "", "content")
	requireCode(t, err, http.StatusBadRequest, notesdk.ErrorCodeInvalidInput)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/v1/notes", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice.Token())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFormLoginSetsCookie(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	require.NoError(t, srv.client.Register(ctx, "Eve", "eve@example.com", "pw"))

	form := url.Values{"email": {"eve@example.com"}, "password": {"pw"}}
	resp, err := http.PostForm(srv.URL+"/v1/login", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == nbhttp.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/me", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	alice := srv.signup(t, "Alice", "alice@example.com")
	_, err := alice.CreateNote(ctx, "T", "C")
	require.NoError(t, err)

	_, err = alice.AdminStats(ctx)
	requireCode(t, err, http.StatusForbidden, notesdk.ErrorCodeForbidden)

	users, err := alice.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		require.True(t, strings.HasSuffix(u.Email, "@***"), u.Email)
		require.Nil(t, u.LastLogin)
	}

	admin, err := srv.client.Login(ctx, service.DefaultAdminEmail, service.DefaultAdminPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", admin.Role)

	stats, err := admin.AdminStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 1, stats.TotalNotes)
	require.Equal(t, 2, stats.ActiveToday)
	require.NotEmpty(t, stats.RecentActivity)
	require.Equal(t, service.DefaultAdminEmail, stats.RecentActivity[0].UserEmail)

	feed, err := admin.AdminActivity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	notes, err := admin.AdminNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "alice@example.com", notes[0].OwnerEmail)

	users, err = admin.Users(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", users[0].Email)
}

func TestActivityLimitValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "Alice", "alice@example.com")

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/v1/activity?limit=abc", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+alice.Token())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	entries, err := alice.Activity(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLocalizedErrors(t *testing.T) {
	srv := newTestServer(t)

	ru := notesdk.New(srv.URL)
	ru.Language = "ru-RU,ru;q=0.9"
	_, err := ru.Login(t.Context(), "nobody@example.com", "pw")

	var apiErr *notesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Неверный email или пароль.", apiErr.Description)

	_, err = srv.client.Login(t.Context(), "nobody@example.com", "pw")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid email or password.", apiErr.Description)
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()

	var err error
	for range 10 {
		if _, err = srv.client.Login(ctx, "victim@example.com", "guess"); notesdk.IsCode(err, notesdk.ErrorCodeRateLimitExceeded) {
			break
		}
	}
	requireCode(t, err, http.StatusTooManyRequests, notesdk.ErrorCodeRateLimitExceeded)
}

// formLogin posts a form login with the given X-Forwarded-For header and
// returns the status code.
func (s *testServer) formLogin(t *testing.T, email, password, forwardedFor string) int {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, s.URL+"/v1/login", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func (s *testServer) origins(t *testing.T, email string) []string {
	t.Helper()
	entries, err := (&service.ActivityService{Store: s.store}).RecentForUser(t.Context(), email, 100)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if e.Kind == domain.ActivityLogin || e.Kind == domain.ActivityFailedLogin {
			out = append(out, e.IPAddress)
		}
	}
	return out
}

func TestLoginIgnoresForgedForwardedFor(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.client.Register(t.Context(), "Victim", "victim@example.com", "pw"))

	limited := 0
	for i := range 30 {
		if srv.formLogin(t, "victim@example.com", "guess", fmt.Sprintf("forged-%d", i)) == http.StatusTooManyRequests {
			limited++
		}
	}
	require.GreaterOrEqual(t, limited, 20)

	origins := srv.origins(t, "victim@example.com")
	require.Len(t, origins, 30-limited)
	for _, ip := range origins {
		require.Equal(t, "127.0.0.1", ip)
	}
}

func TestLoginBehindTrustedProxy(t *testing.T) {
	trusted, err := httpx.ParseTrustedProxies("127.0.0.1")
	require.NoError(t, err)
	srv := newTestServerWith(t, nbhttp.Options{BuildVersion: "test", TrustedProxies: trusted})
	require.NoError(t, srv.client.Register(t.Context(), "Zed", "zed@example.com", "pw"))

	require.Equal(t, http.StatusOK, srv.formLogin(t, "zed@example.com", "pw", "203.0.113.9"))
	require.Equal(t, http.StatusUnauthorized, srv.formLogin(t, "zed@example.com", "nope", "not-an-ip"))
	require.Equal(t, []string{"127.0.0.1", "203.0.113.9"}, srv.origins(t, "zed@example.com"))

	// Each forwarded client gets its own bucket.
	for range 5 {
		require.Equal(t, http.StatusUnauthorized, srv.formLogin(t, "zed@example.com", "nope", "198.51.100.1"))
	}
	require.Equal(t, http.StatusTooManyRequests, srv.formLogin(t, "zed@example.com", "nope", "198.51.100.1"))
	require.Equal(t, http.StatusOK, srv.formLogin(t, "zed@example.com", "pw", "198.51.100.2"))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()

	live, err := srv.client.Liveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := srv.client.Readiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)

	require.NoError(t, srv.store.Close())
	_, err = srv.client.Readiness(ctx)
	var apiErr *notesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestSwaggerIsServed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
