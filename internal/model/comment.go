package model

import "time"

// Comment is a row of the comments table.
type Comment struct {
	ID        int64     `db:"id"`
	PostID    int64     `db:"post_id"`
	UserID    int64     `db:"user_id"`
	Content   *string   `db:"content"`
	ImageKey  *string   `db:"image_key"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateCommentRequest is the write shape for POST /posts/{id}/comments.
type CreateCommentRequest struct {
	Content  *string `json:"content"`
	ImageKey *string `json:"image_key"`
}

// Comment constraints
const (
	MaxCommentLength   = 2200
	CommentImageFolder = "comments"
)

// Comment errors
var (
	ErrContentTooLong = validationError("comment content too long (max 2200 characters)")
)
