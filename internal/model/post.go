package model

import "time"

// Post is a row of the posts table. CommentCount is computed by the query.
type Post struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	Title        string    `db:"title"`
	Content      *string   `db:"content"`
	ImageKey     *string   `db:"image_key"`
	UpvoteCount  int       `db:"upvote_count"`
	CommentCount int       `db:"amount_commentaries"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CreatePostRequest is the write shape for POST /posts.
// The owner always comes from the authenticated identity.
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  *string `json:"content"`
	ImageKey *string `json:"image_key"`
}

// UpdatePostRequest is the write shape for PUT/PATCH /posts/{id}.
// Nil fields are left unchanged; an empty content or image_key clears it.
type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageKey *string `json:"image_key"`
}

// UpvoteResult is the state of an upvote after a toggle.
type UpvoteResult struct {
	PostID      int64 `json:"post_id"`
	Upvoted     bool  `json:"upvoted"`
	UpvoteCount int   `json:"upvote_count"`
}

// FeedResponse is the cursor-paginated home feed.
type FeedResponse struct {
	Posts      []PostListView `json:"posts"`
	NextCursor *string        `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// Post constraints
const (
	MaxPostTitleLength   = 255
	MaxPostContentLength = 10000
	PostImageFolder      = "posts"
)

// Post errors
var (
	ErrPostNotFound     = notFoundError("post")
	ErrNotPostOwner     = permissionError("you are not the owner of this post")
	ErrTitleRequired    = validationError("title is required")
	ErrTitleTooLong     = validationError("title too long (max 255 characters)")
	ErrPostContentLong  = validationError("content too long (max 10000 characters)")
	ErrUpvoteConflict   = conflictError("upvote changed concurrently, retry")
	ErrInvalidImageKey  = validationError("image_key does not reference an uploaded image")
	ErrInvalidCursor    = validationError("invalid cursor")
	ErrInvalidPostOwner = validationError("owner must be a user id or \"me\"")
)
