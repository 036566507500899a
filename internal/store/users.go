package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commerce-service/internal/domain"
)

// --- UserStorer Implementation ---

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, password
		FROM tb_user
		WHERE email = $1;
	`
	var user domain.User
	err := s.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed to scan row: %w", err)
	}

	rolesQuery := `
		SELECT r.authority
		FROM tb_role r
		JOIN tb_user_role ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.authority ASC;
	`
	rows, err := s.db.QueryContext(ctx, rolesQuery, user.ID)
	if err != nil {
		return nil, fmt.Errorf("store: GetUserByEmail failed to query roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var authority string
		if err := rows.Scan(&authority); err != nil {
			return nil, fmt.Errorf("store: GetUserByEmail failed to scan role: %w", err)
		}
		user.Roles = append(user.Roles, domain.Role(authority))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: GetUserByEmail role iteration error: %w", err)
	}
	return &user, nil
}
