package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/pkg/config"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 1*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")

	cfg := LoadConfigFromEnv(config.NewLoader(nil, nil))

	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Empty(t, cfg.DSN)
	assert.Equal(t, DefaultConnectionConfig(), cfg.Pool)
}

func TestLoadConfigFromEnv_SQLite(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "0")

	loader := config.NewLoader(nil, nil)
	cfg := LoadConfigFromEnv(loader)

	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "file:newsbrief.db", cfg.DSN)
	assert.Equal(t, 25, cfg.Pool.MaxOpenConns)
	assert.Len(t, loader.Warnings(), 1)
}

func TestLoadConfigFromEnv_UnknownDriverFallsBack(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "postgres://localhost/newsbrief")

	cfg := LoadConfigFromEnv(config.NewLoader(nil, nil))

	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "postgres://localhost/newsbrief", cfg.DSN)
}

func TestSQLDriverName(t *testing.T) {
	name, err := sqlDriverName(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "pgx", name)

	name, err = sqlDriverName(DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", name)

	_, err = sqlDriverName("oracle")
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:a.db?mode=rwc"))
}

func TestOpen_MissingDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestOpenAndMigrate_SQLiteInMemory(t *testing.T) {
	conn, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		DSN:    "file::memory:",
		Pool:   DefaultConnectionConfig(),
	})
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	version, err := MigrateUp(conn, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// second run is a no-op
	version, err = MigrateUp(conn, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	for _, table := range []string{"crawled_articles", "daily_insights", "subscribers", "newsletters", "newsletter_items", "send_logs"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	require.NoError(t, MigrateDown(conn, DriverSQLite))
	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'crawled_articles'`).Scan(&count))
	assert.Equal(t, 0, count)
}
