// Package sqlite implements the persistence repositories on SQLite using the
// pure Go modernc driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/example/conference-portal/internal/persistence"
	"github.com/example/conference-portal/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations exposes the embedded schema files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("sqlite: embedded migrations missing: %v", err))
	}
	return sub
}

// Storage bundles every SQLite repository over one connection pool.
type Storage struct {
	*SpeakerRepository
	*ScheduleRepository
	*AdminUserRepository
	*SessionRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Store = (*Storage)(nil)

// Open opens the database at path with the default settings. A "file:"
// prefix, as used in database URLs, is accepted.
func Open(path string, logger *slog.Logger) (*Storage, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "file:")
	if path == ":memory:" {
		return OpenWithConfig(migration.InMemoryTestSQLiteConfig(), logger)
	}
	return OpenWithConfig(migration.DefaultSQLiteConfig(path), logger)
}

// OpenWithConfig opens a database using an explicit configuration.
func OpenWithConfig(cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{
		SpeakerRepository:   NewSpeakerRepository(pool),
		ScheduleRepository:  NewScheduleRepository(pool),
		AdminUserRepository: NewAdminUserRepository(pool),
		SessionRepository:   NewSessionRepository(pool),
		pool:                pool,
		logger:              logger.With("component", "sqlite"),
	}, nil
}

// Migrate applies any pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("sqlite storage is not initialised")
	}
	manager := migration.NewManager(Migrations(), migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	applied, err := manager.Run(ctx)
	if err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	if applied > 0 {
		s.logger.InfoContext(ctx, "sqlite schema migrated", "applied", applied)
	}
	return nil
}

// MigrationStatus reports applied and pending migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager := migration.NewManager(Migrations(), migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	return manager.Status(ctx)
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
