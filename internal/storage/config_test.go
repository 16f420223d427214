package storage

import (
	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDSN(t *testing.T) {
	config := Config{
		User:     "a",
		Password: "b",
		Host:     "c",
		Port:     6543,
		DBName:   "d",
	}
	expected := "user=a password=b host=c port=6543 dbname=d sslmode=disable"
	require.Equal(t, expected, config.DSN())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("DB_PORT", "15432")

	var cfg Config
	require.NoError(t, env.Parse(&cfg))
	require.Equal(t, DriverSQLite, cfg.Driver)
	require.Equal(t, "/tmp/test.db", cfg.SQLitePath)
	require.Equal(t, uint16(15432), cfg.Port)
	require.Equal(t, "postgres", cfg.User)
	require.Equal(t, "messages", cfg.DBName)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.Parse(&cfg))
	require.Equal(t, DriverPostgres, cfg.Driver)
	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, uint16(5432), cfg.Port)
}
