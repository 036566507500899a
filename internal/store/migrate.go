package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"commerce-service/internal/store/migrations"
)

// migrationLogger adapts *log.Logger to migrate.Logger.
type migrationLogger struct {
	logger  *log.Logger
	verbose bool
}

func (ml migrationLogger) Printf(format string, v ...any) {
	ml.logger.Printf("INFO: migrate: "+format, v...)
}

func (ml migrationLogger) Verbose() bool {
	return ml.verbose
}

func newMigrator(db *sql.DB, logger *log.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("store: failed to open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("store: failed to create migrator: %w", err)
	}
	m.Log = migrationLogger{logger: logger, verbose: true}
	return m, nil
}

// Migrate applies every pending up migration. steps > 0 limits how many are
// applied; a negative steps rolls that many back.
func Migrate(db *sql.DB, logger *log.Logger, steps int) error {
	m, err := newMigrator(db, logger)
	if err != nil {
		return err
	}

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Println("INFO: No migrations to apply.")
			return nil
		}
		return fmt.Errorf("store: migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("store: failed to read migration version: %w", err)
	}
	logger.Printf("INFO: Migrations applied, schema version %d (dirty=%t)", version, dirty)
	return nil
}
