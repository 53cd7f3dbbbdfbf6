package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/sparkboard/internal/persistence"
	"github.com/example/sparkboard/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	_ persistence.UserRepository    = (*Storage)(nil)
	_ persistence.SessionRepository = (*Storage)(nil)
	_ persistence.BadgeRepository   = (*Storage)(nil)
	_ persistence.AwardRepository   = (*Storage)(nil)
	_ persistence.SparkRepository   = (*Storage)(nil)
)

// Storage bundles every SQLite repository over one connection pool.
type Storage struct {
	*UserRepository
	*SessionRepository
	*BadgeRepository
	*AwardRepository
	*SparkRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open opens the database at dsn with the default configuration.
func Open(dsn string) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(dsn), nil)
}

// OpenWithConfig opens the database described by config.
func OpenWithConfig(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{
		UserRepository:    NewUserRepository(pool),
		SessionRepository: NewSessionRepository(pool),
		BadgeRepository:   NewBadgeRepository(pool),
		AwardRepository:   NewAwardRepository(pool),
		SparkRepository:   NewSparkRepository(pool),
		pool:              pool,
		logger:            logger,
	}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.migrationManager().RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	return s.migrationManager().Status(ctx)
}

func (s *Storage) migrationManager() *migration.Manager {
	return migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		s.logger,
	)
}
