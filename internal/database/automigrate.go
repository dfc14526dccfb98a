package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trakr/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&model.User{},
		&model.Project{},
		&model.Column{},
		&model.Epic{},
		&model.Role{},
		&model.Ticket{},
	}
}

// AutoMigrate creates or updates the schema straight from the model structs.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date: versioned SQL migrations on Postgres,
// AutoMigrate on SQLite.
func Migrate(db *gorm.DB, cfg Config, logger *zap.Logger) error {
	if cfg.Driver == DriverSQLite {
		logger.Info("Running auto-migration", zap.String("driver", cfg.Driver))
		return AutoMigrate(db)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(cfg.DSN))
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("Database schema is up to date",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// migrateURL rewrites a postgres URL for the pgx/v5 migrate driver.
func migrateURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}
