// Package db opens the relational store, applies schema migrations and
// provides the scoped transaction helper used by the persistence adapters.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"newsbrief/internal/pkg/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Config selects the driver and data source.
type Config struct {
	Driver string
	DSN    string
	Pool   ConnectionConfig
}

// LoadConfigFromEnv reads DATABASE_DRIVER, DATABASE_URL and the DB_* pool
// settings. SQLite defaults to a local file, matching single-machine use.
func LoadConfigFromEnv(loader *config.Loader) Config {
	defaults := DefaultConnectionConfig()
	driver := loader.String("DATABASE_DRIVER", DriverPostgres, config.OneOf(DriverPostgres, DriverSQLite))

	defaultDSN := ""
	if driver == DriverSQLite {
		defaultDSN = "file:newsbrief.db"
	}

	return Config{
		Driver: driver,
		DSN:    config.LoadEnvString("DATABASE_URL", defaultDSN),
		Pool: ConnectionConfig{
			MaxOpenConns:    loader.Int("DB_MAX_OPEN_CONNS", defaults.MaxOpenConns, config.IntRange(1, 500)),
			MaxIdleConns:    loader.Int("DB_MAX_IDLE_CONNS", defaults.MaxIdleConns, config.IntRange(0, 500)),
			ConnMaxLifetime: loader.Duration("DB_CONN_MAX_LIFETIME", defaults.ConnMaxLifetime, config.ValidatePositiveDuration),
			ConnMaxIdleTime: loader.Duration("DB_CONN_MAX_IDLE_TIME", defaults.ConnMaxIdleTime, config.ValidatePositiveDuration),
		},
	}
}

// sqlDriverName maps the configured driver to the database/sql name.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "pgx", nil
	case DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// sqliteDSN enables foreign keys and a busy timeout on every connection.
func sqliteDSN(dsn string) string {
	sep := "?"
	for _, c := range dsn {
		if c == '?' {
			sep = "&"
			break
		}
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open creates the pool and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("open database: DATABASE_URL not set")
	}

	name, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	pool := cfg.Pool
	if cfg.Driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
	}

	conn, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("driver", cfg.Driver),
		slog.Int("max_open_conns", pool.MaxOpenConns),
		slog.Int("max_idle_conns", pool.MaxIdleConns),
		slog.Duration("conn_max_lifetime", pool.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", pool.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established successfully")
	return conn, nil
}
