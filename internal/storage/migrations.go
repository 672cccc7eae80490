package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 1

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSchemaMismatch is returned when migrations leave the schema at an
// unexpected or dirty version.
var ErrSchemaMismatch = errors.New("database schema version mismatch")

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	m, src, err := s.newMigrator()
	if err != nil {
		return err
	}
	// The database driver shares s.db, so only the source is closed here.
	defer func() { _ = src.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty || version != ExpectedSchemaVersion {
		return fmt.Errorf("%w: expected %d, got %d (dirty=%v)", ErrSchemaMismatch, ExpectedSchemaVersion, version, dirty)
	}

	slog.Debug("database schema ready", "version", version, "path", s.dbPath)
	return nil
}

// SchemaVersion reports the applied schema version, or 0 for a fresh database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (uint, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	m, src, err := s.newMigrator()
	if err != nil {
		return 0, err
	}
	defer func() { _ = src.Close() }()

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (s *SQLiteStorage) newMigrator() (*migrate.Migrate, source.Driver, error) {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, src, nil
}
