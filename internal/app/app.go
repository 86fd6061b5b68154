// Package app assembles the HTTP routers of the three binaries. The mains
// own configuration and connections; everything here is wiring.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adboard/adboard/internal/gateway"
	"github.com/adboard/adboard/internal/handler"
	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/middleware"
	"github.com/adboard/adboard/internal/service"
)

// Deps are the pieces every router shares.
type Deps struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler     http.Handler
	MaxRequestBodySize int64
	// Ready lists the dependencies /readyz pings.
	Ready []handler.Check
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Recorder == nil {
		d.Recorder = metrics.NewNoop()
	}
	if d.MaxRequestBodySize <= 0 {
		d.MaxRequestBodySize = middleware.DefaultMaxBodySize
	}
	return d
}

// AdsRouter builds the ads service router.
func AdsRouter(svc *service.AdService, d Deps) *chi.Mux {
	d = d.withDefaults()
	h := handler.New(handler.TitleAds)
	ads := handler.NewAdHandler(svc, d.Logger)

	r := serviceRouter(h, d)
	r.Route("/ads", func(r chi.Router) {
		r.Get("/", ads.List)
		r.Post("/", ads.Create)
		r.Put("/", ads.Update)
		r.Get("/by-user", ads.ListByUser)
		r.Delete("/by-user", ads.DeleteByUser)
		r.Get("/{id}", ads.Get)
		r.Delete("/{id}", ads.Delete)
	})
	return r
}

// UserRouter builds the user service router.
func UserRouter(svc *service.UserService, d Deps) *chi.Mux {
	d = d.withDefaults()
	h := handler.New(handler.TitleUser)
	users := handler.NewUserHandler(svc, d.Logger)

	r := serviceRouter(h, d)
	r.Route("/users", func(r chi.Router) {
		r.Get("/", users.List)
		r.Post("/", users.Create)
		r.Put("/", users.Update)
		r.Delete("/", users.Delete)
		r.Get("/ads", users.Ads)
		r.Get("/{id}", users.Get)
	})
	return r
}

func serviceRouter(h *handler.Handler, d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger, h.Panic))
	r.Use(middleware.Metrics(d.Recorder))
	r.Use(middleware.MaxBodySize(d.MaxRequestBodySize, h.TooLarge))

	mountOps(r, d)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	return r
}

// GatewayConfig holds the gateway-only settings.
type GatewayConfig struct {
	Routes        []gateway.Route
	RateLimit     middleware.RateLimitConfig
	IsDevelopment bool
}

// GatewayRouter builds the edge router. Rate limiting covers the proxied
// routes only; probes and /metrics are never limited.
func GatewayRouter(proxy *gateway.Proxy, cfg GatewayConfig, d Deps) (*chi.Mux, error) {
	d = d.withDefaults()
	if cfg.RateLimit.Logger == nil {
		cfg.RateLimit.Logger = d.Logger
	}
	if cfg.RateLimit.Recorder == nil {
		cfg.RateLimit.Recorder = d.Recorder
	}

	r := chi.NewRouter()
	security := middleware.DefaultSecurityConfig()
	security.IsDevelopment = cfg.IsDevelopment
	r.Use(middleware.Security(security))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger, gateway.Panic))
	r.Use(middleware.Metrics(d.Recorder))
	r.Use(middleware.MaxBodySize(d.MaxRequestBodySize, gateway.TooLarge))

	mountOps(r, d)

	var mountErr error
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(cfg.RateLimit))
		mountErr = proxy.Mount(r, cfg.Routes)
	})
	if mountErr != nil {
		return nil, mountErr
	}

	r.NotFound(gateway.NotFound)
	r.MethodNotAllowed(gateway.MethodNotAllowed)
	return r, nil
}

// mountOps registers the probes and the metrics endpoint.
func mountOps(r chi.Router, d Deps) {
	health := handler.NewHealthHandler(d.Ready...)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}
}
