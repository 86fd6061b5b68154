// Package main is the entrypoint for the gateway.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/adboard/adboard/internal/app"
	"github.com/adboard/adboard/internal/cache"
	"github.com/adboard/adboard/internal/config"
	"github.com/adboard/adboard/internal/gateway"
	"github.com/adboard/adboard/internal/handler"
	"github.com/adboard/adboard/internal/logging"
	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/middleware"
	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/server"
)

const serviceName = "gateway"

func main() {
	ctx := context.Background()

	cfg, err := config.LoadGateway()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(cfg.Logging(), serviceName)
	defer logCloser.Close()

	recorder := metrics.NewPrometheus(serviceName)

	routes := gateway.DefaultRoutes()
	if cfg.RoutesFile != "" {
		routes, err = gateway.LoadRoutes(cfg.RoutesFile)
		if err != nil {
			logger.Error("failed to load routes", "file", cfg.RoutesFile, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded route table", "file", cfg.RoutesFile, "routes", len(routes))
	}

	// Rate limit state lives in Redis when configured so replicas share it.
	var (
		limiter     middleware.Limiter = middleware.NewLocalLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		redisCheck  handler.HealthChecker
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", logging.SanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", logging.RedactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
		limiter = middleware.NewRedisLimiter(cacheClient, cfg.RateLimitRPS, cfg.RateLimitBurst)
		redisCheck = cacheClient
	}

	proxy, err := gateway.NewProxy(gateway.Options{
		Backends: map[string]string{
			gateway.BackendAds:   cfg.AdsServiceURL,
			gateway.BackendUsers: cfg.UserServiceURL,
		},
		HTTPClient: peer.NewHTTPClient(cfg.UpstreamTimeout),
		Recorder:   recorder,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("invalid backend configuration", "error", err)
		os.Exit(1)
	}

	r, err := app.GatewayRouter(proxy, app.GatewayConfig{
		Routes:        routes,
		IsDevelopment: cfg.IsDevelopment(),
		RateLimit: middleware.RateLimitConfig{
			Logger:   logger,
			Limiter:  limiter,
			Recorder: recorder,
			Enabled:  cfg.RateLimitEnabled,
			Burst:    cfg.RateLimitBurst,
		},
	}, app.Deps{
		Logger:             logger,
		Recorder:           recorder,
		MetricsHandler:     recorder.Handler(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Ready:              []handler.Check{{Name: "redis", Checker: redisCheck}},
	})
	if err != nil {
		logger.Error("failed to mount routes", "error", err)
		os.Exit(1)
	}

	srv := server.New(r, server.Options{
		Name:            serviceName,
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"ads_service_url", cfg.AdsServiceURL,
		"user_service_url", cfg.UserServiceURL,
		"rate_limiter", limiter.Name(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
