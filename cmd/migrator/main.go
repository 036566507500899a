// Command migrator applies the embedded schema migrations, or prints a
// bcrypt hash for seeding user passwords.
package main

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"commerce-service/internal/auth"
	"commerce-service/internal/config"
	"commerce-service/internal/store"
)

const (
	dsnFlag          = "dsn"
	stepsFlag        = "steps"
	hashPasswordFlag = "hash-password"
	bcryptCostFlag   = "bcrypt-cost"
)

func main() {
	logger := log.New(os.Stdout, "[migrator] ", log.LstdFlags)
	if err := run(os.Args[1:], os.Stdout, logger, sql.Open); err != nil {
		fallDown(logger, err)
	}
}

// run executes one migrator invocation. The database handle is closed before
// it returns, so callers may exit right after.
func run(args []string, stdout io.Writer, logger *log.Logger, open func(driverName, dsn string) (*sql.DB, error)) error {
	fs := pflag.NewFlagSet("migrator", pflag.ContinueOnError)
	dsn := fs.StringP(dsnFlag, "d", "", "postgres DSN; defaults to the POSTGRES_* environment")
	steps := fs.IntP(stepsFlag, "n", 0, "number of migrations to apply, negative rolls back; 0 applies all")
	password := fs.String(hashPasswordFlag, "", "print the bcrypt hash of this password and exit")
	cost := fs.Int(bcryptCostFlag, bcrypt.DefaultCost, "bcrypt cost used with --"+hashPasswordFlag)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password != "" {
		hashed, err := auth.HashPassword(*password, *cost)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, hashed)
		return err
	}

	if *dsn == "" {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("--%s not given and environment incomplete: %w", dsnFlag, err)
		}
		*dsn = cfg.Postgres.DSN()
	}

	db, err := open("postgres", *dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Printf("WARN: failed to close database: %v", err)
		}
	}()

	return store.Migrate(db, logger, *steps)
}

func fallDown(logger *log.Logger, err error) {
	logger.Printf("FATAL: %v", err)
	os.Exit(2)
}
