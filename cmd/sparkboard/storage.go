package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/sparkboard/internal/config"
	"github.com/example/sparkboard/internal/persistence"
	"github.com/example/sparkboard/internal/persistence/postgres"
	"github.com/example/sparkboard/internal/persistence/sqlite"
	"github.com/example/sparkboard/internal/persistence/sqlite/migration"
)

// store is the union of repositories both backends provide.
type store interface {
	persistence.UserRepository
	persistence.SessionRepository
	persistence.BadgeRepository
	persistence.AwardRepository
	persistence.SparkRepository

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		s, err := sqlite.OpenWithConfig(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// openMigratedStore opens the configured store and applies pending migrations.
func openMigratedStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, error) {
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
