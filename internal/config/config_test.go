package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "commerce")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "commerce")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, 60*time.Second, cfg.HttpServer.TimeoutRequest)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Postgres.ConnMaxLifetime)
	assert.False(t, cfg.Migrations.AutoMigrate)
	assert.Equal(t,
		"host=localhost port=5432 user=commerce password=secret dbname=commerce sslmode=disable",
		cfg.Postgres.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_SERVER_PORT", "8000")
	t.Setenv("POSTGRES_SSLMODE", "require")
	t.Setenv("MIGRATIONS_AUTO", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.HttpServer.Port)
	assert.Equal(t, "require", cfg.Postgres.SSLMode)
	assert.True(t, cfg.Migrations.AutoMigrate)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, os.Unsetenv("POSTGRES_HOST"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_HOST")
}

func TestLoad_IdleExceedsOpen(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "5")
	t.Setenv("POSTGRES_MAX_IDLE_CONNS", "10")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_MAX_IDLE_CONNS")
}
