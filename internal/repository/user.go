package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// maxUsernameAttempts bounds the suffixes tried for a taken username.
const maxUsernameAttempts = 5

// Upsert inserts the user row provisioned from the identity provider.
// An existing row is left as is. When the username already belongs to another
// identity it is suffixed with the id, then with a counter, until it is free.
func (r *userRepository) Upsert(ctx context.Context, tx *sqlx.Tx, id int64, username string) error {
	candidate := username
	for attempt := 1; attempt <= maxUsernameAttempts; attempt++ {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, candidate)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 1 {
			return nil
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if exists {
			return nil
		}
		candidate = suffixedUsername(username, id, attempt+1)
	}
	return fmt.Errorf("no free username for user %d after %d attempts", id, maxUsernameAttempts)
}

// suffixedUsername is "name-<id>" on the second attempt and
// "name-<id>-<attempt>" after that.
func suffixedUsername(username string, id int64, attempt int) string {
	if attempt <= 2 {
		return fmt.Sprintf("%s-%d", username, id)
	}
	return fmt.Sprintf("%s-%d-%d", username, id, attempt)
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, username, created_at FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// LockForUpdate takes the user's row lock for the rest of tx. Inserts that
// reference the user (posts, comments, upvotes) wait on their foreign key
// check until tx ends, and fail with 23503 if tx deleted the user.
func (r *userRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var locked int64
	err := tx.GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

// Delete removes the user. The profile, posts, comments, upvotes and follow
// edges go with it through ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
