package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"go-shop-api/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrateURL rewrites a postgres:// DSN to the scheme of the pgx v5 migrate driver.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Migrate applies every pending up migration.
func Migrate(dsn string) error {
	return run(dsn, "up", func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back every applied migration.
func MigrateDown(dsn string) error {
	return run(dsn, "down", func(m *migrate.Migrate) error { return m.Down() })
}

func run(dsn, direction string, step func(*migrate.Migrate) error) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	log := logger.Get().WithField("direction", direction)
	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Migrations already up to date")
			return nil
		}
		return fmt.Errorf("running migrations %s: %w", direction, err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading migration version: %w", err)
	}
	log.WithField("version", version).WithField("dirty", dirty).Info("Migrations applied")
	return nil
}
