package httpx

import (
	"math"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

// RateLimitConfig is a token bucket: RequestsPerWindow tokens refill evenly
// over Window, and at most Burst can be spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int

	// OnLimit renders the 429 response; nil uses a plain JSON body
	OnLimit ErrorWriter
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Profiles shared by the router. Each can be overridden with
// RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards credential endpoints: 5 per minute.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit is for authenticated but heavier calls: 20 per minute.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit is for routine note traffic: 100 per minute.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit is for health probes: 1000 per minute.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	LoadRateLimitsFromEnv()
}

// LoadRateLimitsFromEnv re-reads the profile overrides. Call it after loading
// a .env file so overrides placed there take effect.
func LoadRateLimitsFromEnv() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv applies RATELIMIT_{prefix}_REQUESTS, _WINDOW_SEC and
// _BURST on top of def. Missing, malformed or non-positive values keep the
// default.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// sweepEvery bounds how often idle buckets are scanned for eviction.
const sweepEvery = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets is the per-key limiter table for one middleware instance. A bucket
// idle for longer than a full refill is indistinguishable from a new one, so
// it is dropped on the next sweep.
type buckets struct {
	mu        sync.Mutex
	byKey     map[string]*bucket
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	nextSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{
		byKey:     make(map[string]*bucket),
		limit:     cfg.limit(),
		burst:     cfg.Burst,
		idleAfter: max(cfg.Window, sweepEvery),
		nextSweep: time.Now().Add(sweepEvery),
	}
}

// take spends one token for key. When the bucket is empty it reports how
// long until the next token.
func (b *buckets) take(key string, now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.nextSweep) {
		for k, bk := range b.byKey {
			if now.Sub(bk.lastSeen) > b.idleAfter {
				delete(b.byKey, k)
			}
		}
		b.nextSweep = now.Add(sweepEvery)
	}

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now

	if bk.limiter.AllowN(now, 1) {
		return true, 0
	}

	missing := 1 - bk.limiter.TokensAt(now)
	return false, time.Duration(missing / float64(b.limit) * float64(time.Second))
}

// RateLimitMiddleware throttles requests grouped by keyOf. Requests with an
// empty key pass through unthrottled.
func RateLimitMiddleware(cfg RateLimitConfig, keyOf KeyExtractor) Middleware {
	table := newBuckets(cfg)
	limitHeader := strconv.Itoa(cfg.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, skipping")
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := table.take(key, time.Now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", limitHeader)
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)

			if cfg.OnLimit != nil {
				cfg.OnLimit(w, r, http.StatusTooManyRequests, "rate_limit_exceeded")
				return
			}
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Too many requests. Please try again later.",
			})
		})
	}
}

// RateLimitByIP groups requests by client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByUser groups requests by authenticated subject and address.
// Anonymous requests fall back to the address alone.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndFormField groups requests by address plus a body field,
// such as the email of a login attempt.
func RateLimitByIPAndFormField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, FormFieldKeyExtractor(field)))
}
