package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository reads user profiles mirrored from the auth provider
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListIDsByRole(ctx context.Context, role Role) ([]string, error)
}

// PostgresRepository reads the profiles table
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new user repository with database dependency injected
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, name, role
		FROM profiles
		WHERE id = $1
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ListIDsByRole returns the IDs of every user holding role
func (r *PostgresRepository) ListIDsByRole(ctx context.Context, role Role) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM profiles WHERE role = $1 ORDER BY id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return ids, nil
}
