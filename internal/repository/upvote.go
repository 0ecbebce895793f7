package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
)

type upvoteRepository struct {
	db *sqlx.DB
}

func NewUpvoteRepository(db *sqlx.DB) UpvoteRepository {
	return &upvoteRepository{db: db}
}

// Create inserts an upvote row. Returns ErrUpvoteConflict if duplicate.
func (r *upvoteRepository) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO upvotes (user_id, post_id) VALUES ($1, $2)`, userID, postID)
	if err != nil {
		return upvoteInsertError(err)
	}
	return nil
}

func upvoteInsertError(err error) error {
	switch pqCode(err) {
	case pqUniqueViolation:
		return model.ErrUpvoteConflict
	case pqForeignKeyViolation:
		if pqConstraint(err) == fkUpvoteUser {
			return model.ErrUserNotFound
		}
		return model.ErrPostNotFound
	}
	return fmt.Errorf("insert upvote: %w", err)
}

func (r *upvoteRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM upvotes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("delete upvote: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ReleaseAllByUser removes the user's upvotes and takes them off the counters
// in one statement. Run it before deleting the user so the cascade finds no
// upvote rows left to remove behind the counters' back.
func (r *upvoteRepository) ReleaseAllByUser(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	query := `
		WITH removed AS (
			DELETE FROM upvotes WHERE user_id = $1 RETURNING post_id
		)
		UPDATE posts p
		SET upvote_count = p.upvote_count - 1
		FROM removed
		WHERE p.id = removed.post_id
	`
	result, err := tx.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("release user upvotes: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}
