package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// MigrateUp applies all pending migrations for driver and returns the
// resulting schema version.
func MigrateUp(conn *sql.DB, driver string) (_ uint, err error) {
	m, release, err := newMigrator(conn, driver)
	if err != nil {
		return 0, err
	}
	defer func() { err = errors.Join(err, release()) }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migration version %d is dirty", version)
	}

	slog.Info("database migrations applied",
		slog.String("driver", driver),
		slog.Uint64("version", uint64(version)))
	return version, nil
}

// MigrateDown rolls back every migration. Used by briefctl only.
func MigrateDown(conn *sql.DB, driver string) (err error) {
	m, release, err := newMigrator(conn, driver)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, release()) }()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// newMigrator builds a migrate instance on conn. release must be called
// once the instance is no longer needed: it hands the dedicated postgres
// connection back to the pool. conn itself stays open, so m.Close is not
// used; the sqlite driver's Close would close the shared pool.
func newMigrator(conn *sql.DB, driver string) (_ *migrate.Migrate, release func() error, err error) {
	ctx := context.Background()
	var (
		target  database.Driver
		cleanup = func() error { return nil }
	)
	switch driver {
	case DriverPostgres:
		pinned, err := conn.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire migration connection: %w", err)
		}
		cleanup = pinned.Close
		pg, err := postgres.WithConnection(ctx, pinned, &postgres.Config{})
		if err != nil {
			_ = pinned.Close()
			return nil, nil, fmt.Errorf("create %s migration driver: %w", driver, err)
		}
		target = pg
	case DriverSQLite:
		target, err = sqlite.WithInstance(conn, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s migration driver: %w", driver, err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	source, err := iofs.New(migrationFS, "migrations/"+driver)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}

	release = func() error {
		srcErr := source.Close()
		if err := cleanup(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			return errors.Join(srcErr, fmt.Errorf("release migration connection: %w", err))
		}
		return srcErr
	}
	return m, release, nil
}
