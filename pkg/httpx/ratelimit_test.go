package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"forwarded for is ignored", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "10.0.0.1"},
		{"real ip is ignored", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.1:80", "10.0.0.1"},
		{"remote addr without port", nil, "192.0.2.8", "192.0.2.8"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestIPKeyExtractorUsesResolvedClientIP(t *testing.T) {
	tp, err := httpx.ParseTrustedProxies("10.0.0.0/8")
	require.NoError(t, err)

	var got string
	h := httpx.ClientIPMiddleware(tp)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = httpx.IPKeyExtractor(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "203.0.113.9", got)
}

func TestParseTrustedProxies(t *testing.T) {
	tp, err := httpx.ParseTrustedProxies(" 10.0.0.0/8, 127.0.0.1 ,,::1")
	require.NoError(t, err)
	require.Len(t, tp, 3)

	tp, err = httpx.ParseTrustedProxies("")
	require.NoError(t, err)
	require.Empty(t, tp)

	_, err = httpx.ParseTrustedProxies("10.0.0.0/8,proxy.internal")
	require.Error(t, err)

	_, err = httpx.ParseTrustedProxies("10.0.0.0/40")
	require.Error(t, err)
}

func TestTrustedProxiesClientIP(t *testing.T) {
	tp, err := httpx.ParseTrustedProxies("10.0.0.0/8,127.0.0.1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		trusted httpx.TrustedProxies
		headers map[string]string
		remote  string
		want    string
	}{
		{"untrusted peer ignores forwarded for", tp, map[string]string{"X-Forwarded-For": "203.0.113.9"}, "192.0.2.1:5555", "192.0.2.1"},
		{"untrusted peer ignores real ip", tp, map[string]string{"X-Real-IP": "203.0.113.9"}, "192.0.2.1:5555", "192.0.2.1"},
		{"no trusted proxies", nil, map[string]string{"X-Forwarded-For": "203.0.113.9"}, "10.0.0.1:80", "10.0.0.1"},
		{"trusted peer uses forwarded for", tp, map[string]string{"X-Forwarded-For": "203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
		{"rightmost untrusted hop wins", tp, map[string]string{"X-Forwarded-For": "198.51.100.7, 203.0.113.9, 10.0.0.2"}, "10.0.0.1:80", "203.0.113.9"},
		{"all hops trusted", tp, map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, "10.0.0.1:80", "10.0.0.3"},
		{"non ip hop falls back to peer", tp, map[string]string{"X-Forwarded-For": "forged-1"}, "10.0.0.1:80", "10.0.0.1"},
		{"non ip hop behind client falls back to peer", tp, map[string]string{"X-Forwarded-For": "203.0.113.9, forged-1"}, "10.0.0.1:80", "10.0.0.1"},
		{"trusted peer uses real ip", tp, map[string]string{"X-Real-IP": " 198.51.100.4 "}, "127.0.0.1:80", "198.51.100.4"},
		{"invalid real ip falls back to peer", tp, map[string]string{"X-Real-IP": "not-an-ip"}, "127.0.0.1:80", "127.0.0.1"},
		{"ipv6 peer", tp, nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"mapped ipv4 forwarded hop", tp, map[string]string{"X-Forwarded-For": "::ffff:203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, tc.trusted.ClientIP(req))
		})
	}
}

func TestRateLimitIgnoresForgedForwardedFor(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.Chain(okHandler,
		httpx.ClientIPMiddleware(nil),
		httpx.RateLimitByIP(cfg),
	)

	codes := make([]int, 0, 5)
	for i := range 5 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("forged-%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{200, 200, 429, 429, 429}, codes)
}

func TestFormFieldKeyExtractor(t *testing.T) {
	extract := httpx.FormFieldKeyExtractor("email")

	t.Run("query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?email=alice@example.com", nil)
		require.Equal(t, "alice@example.com", extract(req))
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"email": {"bob@example.com"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.Equal(t, "bob@example.com", extract(req))
	})

	t.Run("json body is restored", func(t *testing.T) {
		body := `{"email":"carol@example.com","password":"pw"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		require.Equal(t, "carol@example.com", extract(req))

		var got struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, httpx.DecodeRequest(req, &got))
		require.Equal(t, "pw", got.Password)
	})

	t.Run("missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.Empty(t, extract(req))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?email=alice@example.com", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	key := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.FormFieldKeyExtractor("email"))(req)
	require.Equal(t, "192.0.2.1:alice@example.com", key)

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	anon.RemoteAddr = "192.0.2.1:1234"
	key = httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, httpx.IPKeyExtractor)(anon)
	require.Equal(t, "192.0.2.1", key)
}

func hit(h http.Handler, remote, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks after burst", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		h := httpx.RateLimitByIP(cfg)(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, hit(h, "192.0.2.1:1", "/").Code, "request %d", i+1)
		}

		rec := hit(h, "192.0.2.1:1", "/")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

		require.Equal(t, http.StatusOK, hit(h, "192.0.2.2:1", "/").Code)
	})

	t.Run("custom error writer", func(t *testing.T) {
		var code string
		cfg := httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
			OnLimit: func(w http.ResponseWriter, _ *http.Request, status int, c string) {
				code = c
				w.WriteHeader(status)
			},
		}
		h := httpx.RateLimitByIP(cfg)(okHandler)

		hit(h, "192.0.2.1:1", "/")
		rec := hit(h, "192.0.2.1:1", "/")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "rate_limit_exceeded", code)
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" })(okHandler)
		for range 3 {
			require.Equal(t, http.StatusOK, hit(h, "192.0.2.1:1", "/").Code)
		}
	})

	t.Run("login attempts are keyed by ip and email", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
		h := httpx.RateLimitByIPAndFormField(cfg, "email")(okHandler)

		for range 2 {
			require.Equal(t, http.StatusOK, hit(h, "192.0.2.1:1", "/?email=a@example.com").Code)
		}
		require.Equal(t, http.StatusTooManyRequests, hit(h, "192.0.2.1:1", "/?email=a@example.com").Code)
		require.Equal(t, http.StatusOK, hit(h, "192.0.2.1:1", "/?email=b@example.com").Code)
	})
}

func TestRateLimitByUser(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := httpx.Chain(okHandler,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p := httpx.Principal{Subject: r.URL.Query().Get("u"), Role: "user"}
				next.ServeHTTP(w, r.WithContext(httpx.ContextWithPrincipal(r.Context(), p)))
			})
		},
		httpx.RateLimitByUser(cfg),
	)

	require.Equal(t, http.StatusOK, hit(h, "192.0.2.1:1", "/?u=alice").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h, "192.0.2.1:1", "/?u=alice").Code)
	require.Equal(t, http.StatusOK, hit(h, "192.0.2.1:1", "/?u=bob").Code)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	tests := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{"defaults", nil, def},
		{
			"all overridden",
			map[string]string{"REQUESTS": "200", "WINDOW_SEC": "30", "BURST": "250"},
			httpx.RateLimitConfig{RequestsPerWindow: 200, Window: 30 * time.Second, Burst: 250},
		},
		{
			"invalid values ignored",
			map[string]string{"REQUESTS": "many", "WINDOW_SEC": "-10", "BURST": "0"},
			def,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(fmt.Sprintf("RATELIMIT_TEST_%s", k), v)
			}
			got := httpx.ParseRateLimitFromEnv("TEST", def)
			require.Equal(t, tc.want.RequestsPerWindow, got.RequestsPerWindow)
			require.Equal(t, tc.want.Window, got.Window)
			require.Equal(t, tc.want.Burst, got.Burst)
		})
	}
}

func BenchmarkRateLimitManyIPs(b *testing.B) {
	h := httpx.RateLimitByIP(httpx.PublicLimit)(okHandler)
	for i := 0; b.Loop(); i++ {
		hit(h, fmt.Sprintf("10.0.%d.%d:1", i%255, (i/255)%255), "/")
	}
}
