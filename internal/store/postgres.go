package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"commerce-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound   = errors.New("store: category not found")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrOrderNotFound      = errors.New("store: order not found")
	ErrUserNotFound       = errors.New("store: user not found")
	ErrIntegrityViolation = errors.New("store: referential integrity violation")
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore implements the CategoryStorer, ProductStorer, OrderStorer and
// UserStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// withTx runs fn inside a transaction. The transaction is rolled back if fn
// returns an error and committed otherwise.
func (s *PostgresStore) withTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("WARN: transaction rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit transaction: %w", err)
	}
	return nil
}

// mapIntegrityError turns a foreign key violation into ErrIntegrityViolation.
// Other errors are returned unchanged.
func mapIntegrityError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return fmt.Errorf("%w (%s)", ErrIntegrityViolation, pqErr.Constraint)
	}
	return err
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name
		FROM tb_category
		ORDER BY name ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name
		FROM tb_category
		WHERE id = $1;
	`
	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return &category, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
