package repository

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Schema names one service's migration set under migrations/.
type Schema string

const (
	SchemaAds   Schema = "ads"
	SchemaUsers Schema = "users"
)

//go:embed migrations
var migrationFS embed.FS

// Migrate applies all pending up migrations of the given schema. Each schema
// keeps its own version table so both services can share a database in
// development.
func Migrate(databaseURL string, schema Schema) error {
	src, err := iofs.New(migrationFS, "migrations/"+string(schema))
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", schema, err)
	}

	dsn, err := migrateDSN(databaseURL, schema)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply %s migrations: %w", schema, err)
	}

	return nil
}

// migrateDSN rewrites a postgres:// URL for the pgx5 migrate driver.
func migrateDSN(databaseURL string, schema Schema) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql", "pgx5":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}

	q := u.Query()
	q.Set("x-migrations-table", string(schema)+"_schema_migrations")
	u.RawQuery = q.Encode()

	return u.String(), nil
}
