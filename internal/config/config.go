package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // e.g., debug, info, warn, error
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Migrations MigrationsConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port           string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite   time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	TimeoutRequest time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_REQUEST" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" required:"true"`
	Port            string        `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" required:"true"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName          string        `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"5m"`
}

// MigrationsConfig controls schema migrations at startup.
type MigrationsConfig struct {
	AutoMigrate bool `envconfig:"MIGRATIONS_AUTO" default:"false"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	// Example: "host=localhost port=5432 user=user password=password dbname=mydb sslmode=disable"
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg) // The first argument is a prefix for env vars, empty means no prefix
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if cfg.Postgres.MaxIdleConns > cfg.Postgres.MaxOpenConns {
		return nil, fmt.Errorf("invalid configuration: POSTGRES_MAX_IDLE_CONNS (%d) exceeds POSTGRES_MAX_OPEN_CONNS (%d)",
			cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	}

	// Avoid logging sensitive parts of the config like passwords or full DSNs.
	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}
