// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor
// principles, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/adboard/adboard/internal/logging"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Default listen ports per binary.
const (
	DefaultGatewayPort = 8080
	DefaultAdsPort     = 8081
	DefaultUsersPort   = 8082
)

// Common holds settings shared by every binary.
type Common struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Common) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Common) IsProduction() bool {
	return c.AppEnv == "production"
}

// Logging returns the logger settings.
func (c *Common) Logging() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	}
}

// Store selects the entity store backing a domain service.
type Store struct {
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`
}

func (s *Store) validate() error {
	switch s.StoreDriver {
	case DriverPostgres:
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.StoreDriver)
	}
	return nil
}

// Ads configures the ads service.
type Ads struct {
	Common
	Store

	UserServiceURL string        `env:"USER_SERVICE_URL" envDefault:"http://localhost:8082"`
	PeerTimeout    time.Duration `env:"PEER_TIMEOUT" envDefault:"3s"`
}

// Users configures the user service.
type Users struct {
	Common
	Store

	AdsServiceURL string        `env:"ADS_SERVICE_URL" envDefault:"http://localhost:8081"`
	PeerTimeout   time.Duration `env:"PEER_TIMEOUT" envDefault:"3s"`
}

// Gateway configures the edge router.
type Gateway struct {
	Common

	AdsServiceURL   string        `env:"ADS_SERVICE_URL" envDefault:"http://localhost:8081"`
	UserServiceURL  string        `env:"USER_SERVICE_URL" envDefault:"http://localhost:8082"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`

	// Optional YAML route table replacing the built-in one.
	RoutesFile string `env:"GATEWAY_ROUTES_FILE"`

	// Rate limiting. Buckets live in Redis when REDIS_URL is set, in process otherwise.
	RedisURL         string `env:"REDIS_URL"`
	RateLimitEnabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int    `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst   int    `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// LoadAds parses the ads service configuration.
func LoadAds() (*Ads, error) {
	cfg := &Ads{Common: Common{AppPort: DefaultAdsPort}}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.PeerTimeout <= 0 {
		return nil, errors.New("PEER_TIMEOUT must be positive")
	}
	return cfg, nil
}

// LoadUsers parses the user service configuration.
func LoadUsers() (*Users, error) {
	cfg := &Users{Common: Common{AppPort: DefaultUsersPort}}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.PeerTimeout <= 0 {
		return nil, errors.New("PEER_TIMEOUT must be positive")
	}
	return cfg, nil
}

// LoadGateway parses the gateway configuration.
func LoadGateway() (*Gateway, error) {
	cfg := &Gateway{Common: Common{AppPort: DefaultGatewayPort}}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled && (cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0) {
		return nil, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	return cfg, nil
}

// parse loads the optional .env file, then environment variables. Variables
// already present in the environment win over the file.
func parse(cfg any) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}
