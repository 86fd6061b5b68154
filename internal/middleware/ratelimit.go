package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/adboard/adboard/internal/cache"
	"github.com/adboard/adboard/internal/metrics"
)

// Limiter decides whether one more request from key may pass.
type Limiter interface {
	Check(ctx context.Context, key string) (*cache.RateLimitResult, error)
	Name() string
}

// RedisLimiter shares token buckets across gateway replicas through Redis.
type RedisLimiter struct {
	cache *cache.Cache
	rps   int
	burst int
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(c *cache.Cache, rps, burst int) *RedisLimiter {
	return &RedisLimiter{cache: c, rps: rps, burst: burst}
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, key string) (*cache.RateLimitResult, error) {
	return l.cache.CheckClientRateLimit(ctx, key, l.rps, l.burst)
}

// Name implements Limiter.
func (l *RedisLimiter) Name() string { return "redis" }

// LocalLimiter keeps one token bucket per key in process memory. It is used
// when no Redis is configured.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewLocalLimiter creates an in-process limiter.
func NewLocalLimiter(rps, burst int) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Check implements Limiter.
func (l *LocalLimiter) Check(_ context.Context, key string) (*cache.RateLimitResult, error) {
	now := time.Now()
	if l.rps <= 0 {
		return &cache.RateLimitResult{Allowed: true, Remaining: int64(l.burst), ResetAt: now.Add(time.Second)}, nil
	}

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	r := b.ReserveN(now, 1)
	if !r.OK() {
		return &cache.RateLimitResult{Allowed: false, ResetAt: now.Add(time.Second), RetryAfter: time.Second}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		retry := delay.Round(time.Second)
		if retry < time.Second {
			retry = time.Second
		}
		return &cache.RateLimitResult{Allowed: false, ResetAt: now.Add(delay), RetryAfter: retry}, nil
	}

	remaining := int64(b.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return &cache.RateLimitResult{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(float64(time.Second) / float64(l.rps))),
	}, nil
}

// Name implements Limiter.
func (l *LocalLimiter) Name() string { return "local" }

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger   *slog.Logger
	Limiter  Limiter
	Recorder metrics.Recorder
	Enabled  bool
	Burst    int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			result, err := cfg.Limiter.Check(r.Context(), ip)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("limiter", cfg.Limiter.Name()),
				)
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.Burst, result.Remaining, result.ResetAt)

			if !result.Allowed {
				recorder.IncRateLimited(cfg.Limiter.Name())
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("limiter", cfg.Limiter.Name()),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// writeRateLimitError writes a 429 in the gateway envelope.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	msg := fmt.Sprintf(`{"error":"rate limit exceeded, retry after %d seconds"}`, int(retryAfter.Seconds()))
	_, _ = w.Write([]byte(msg))
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers for proxied requests.
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// First entry is the client.
		for i := range xff {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
