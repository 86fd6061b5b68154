package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultMaxBodySize caps request bodies when no limit is configured.
const DefaultMaxBodySize int64 = 1 << 20

// SecurityConfig configures the response headers the gateway adds at the
// edge. The domain services are only reachable through the gateway and do
// not run Security.
type SecurityConfig struct {
	// IsDevelopment disables HSTS so plain-HTTP local stacks keep working.
	IsDevelopment bool
	// HSTSMaxAge is the Strict-Transport-Security lifetime.
	HSTSMaxAge time.Duration
}

// DefaultSecurityConfig returns the production edge settings.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{HSTSMaxAge: 365 * 24 * time.Hour}
}

// Security applies the headers of a JSON-only API edge. Nothing it serves is
// meant to be framed, cached or embedded by a browser, and cross-origin
// callers are not supported.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	if cfg.HSTSMaxAge <= 0 {
		cfg.HSTSMaxAge = DefaultSecurityConfig().HSTSMaxAge
	}
	hsts := fmt.Sprintf("max-age=%d; includeSubDomains", int64(cfg.HSTSMaxAge/time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			h.Set("Cache-Control", "no-store")
			if !cfg.IsDevelopment {
				h.Set("Strict-Transport-Security", hsts)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize limits the request body size. Oversized declared bodies are
// answered by tooLarge up front; streamed ones fail on read.
func MaxBodySize(maxBytes int64, tooLarge Responder) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				if tooLarge != nil {
					tooLarge(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
