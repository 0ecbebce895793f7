package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment. A missing post surfaces as a foreign key
// violation, so there is no window between an existence check and the insert.
func (r *commentRepository) Create(ctx context.Context, postID, userID int64, content, imageKey *string) (*model.Comment, error) {
	query := `
		INSERT INTO comments (post_id, user_id, content, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, post_id, user_id, content, image_key, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, postID, userID, content, imageKey)
	if err != nil {
		return nil, commentInsertError(err)
	}
	return &comment, nil
}

func commentInsertError(err error) error {
	if pqCode(err) == pqForeignKeyViolation {
		if pqConstraint(err) == fkCommentUser {
			return model.ErrUserNotFound
		}
		return model.ErrPostNotFound
	}
	return fmt.Errorf("insert comment: %w", err)
}

// ListByPost returns a post's comments oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, image_key, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at, id
	`
	comments := []model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
