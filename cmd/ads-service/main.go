// Package main is the entrypoint for the ads service.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/adboard/adboard/internal/app"
	"github.com/adboard/adboard/internal/config"
	"github.com/adboard/adboard/internal/handler"
	"github.com/adboard/adboard/internal/logging"
	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/repository"
	"github.com/adboard/adboard/internal/server"
	"github.com/adboard/adboard/internal/service"
)

const serviceName = "ads-service"

func main() {
	ctx := context.Background()

	cfg, err := config.LoadAds()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(cfg.Logging(), serviceName)
	defer logCloser.Close()

	recorder := metrics.NewPrometheus(serviceName)

	var (
		store   service.AdStore
		checker handler.HealthChecker
		closeDB func()
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := repository.NewMemoryAdStore()
		store, checker = mem, mem
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		repo, err := openRepository(ctx, cfg.Store, repository.SchemaAds, logger)
		if err != nil {
			os.Exit(1)
		}
		store, checker, closeDB = repo, repo, repo.Close
	}

	users := peer.NewUserClient(peer.Options{
		BaseURL:    cfg.UserServiceURL,
		HTTPClient: peer.NewHTTPClient(cfg.PeerTimeout),
		Recorder:   recorder,
		Logger:     logger,
	})

	svc := service.NewAdService(store, users, recorder, logger)
	r := app.AdsRouter(svc, app.Deps{
		Logger:             logger,
		Recorder:           recorder,
		MetricsHandler:     recorder.Handler(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Ready:              []handler.Check{{Name: "store", Checker: checker}},
	})

	srv := server.New(r, server.Options{
		Name:            serviceName,
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	if closeDB != nil {
		srv.OnShutdown("database", func(context.Context) error {
			closeDB()
			return nil
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"user_service_url", cfg.UserServiceURL,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openRepository connects to Postgres and applies migrations. Failures are
// logged with credentials redacted.
func openRepository(ctx context.Context, cfg config.Store, schema repository.Schema, logger *slog.Logger) (*repository.Repository, error) {
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", logging.SanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", logging.RedactURL(cfg.DatabaseURL)),
		)
		return nil, err
	}
	logger.Info("connected to database")

	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL, schema); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", logging.SanitizeError(err, cfg.DatabaseURL)),
			)
			repo.Close()
			return nil, err
		}
		logger.Info("migrations applied", "schema", string(schema))
	}

	return repo, nil
}
