package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"postservice/internal/cache"
	"postservice/internal/model"
)

// postSelect loads posts with the comment count computed from comments.
const postSelect = `
	SELECT p.id, p.user_id, p.title, p.content, p.image_key, p.upvote_count,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS amount_commentaries,
	       p.created_at, p.updated_at
	FROM posts p
`

// scoreExpr is a post's feed score: creation time in unix milliseconds.
const scoreExpr = `(EXTRACT(EPOCH FROM created_at) * 1000)::bigint`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post. The database assigns id and timestamps.
func (r *postRepository) Create(ctx context.Context, userID int64, title string, content, imageKey *string) (*model.Post, error) {
	query := `
		INSERT INTO posts (user_id, title, content, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, title, content, image_key, upvote_count, 0 AS amount_commentaries, created_at, updated_at
	`
	var post model.Post
	if err := r.db.GetContext(ctx, &post, query, userID, title, content, imageKey); err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts in the order of postIDs, skipping ids
// that no longer exist. Used for hydrating the feed from cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, postSelect+` WHERE p.id = ANY($1)`, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// List returns posts in creation order, optionally restricted to one owner.
func (r *postRepository) List(ctx context.Context, ownerID *int64, limit, offset int) ([]model.Post, error) {
	posts := []model.Post{}
	err := r.db.SelectContext(ctx, &posts, postSelect+`
		WHERE ($1::bigint IS NULL OR p.user_id = $1)
		ORDER BY p.created_at, p.id
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, ownerID *int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM posts WHERE ($1::bigint IS NULL OR user_id = $1)
	`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	err := r.db.SelectContext(ctx, &posts, postSelect+`
		WHERE p.user_id = $1
		ORDER BY p.created_at, p.id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return posts, nil
}

// Update applies the non-nil fields of req. The owner check is part of the
// UPDATE itself. Empty content or image_key is stored as NULL.
func (r *postRepository) Update(ctx context.Context, postID, userID int64, req model.UpdatePostRequest) (*model.Post, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{postID, userID}

	if req.Title != nil {
		args = append(args, *req.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if req.Content != nil {
		args = append(args, nullIfEmpty(*req.Content))
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if req.ImageKey != nil {
		args = append(args, nullIfEmpty(*req.ImageKey))
		sets = append(sets, fmt.Sprintf("image_key = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $1 AND user_id = $2`, strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, r.missingOrNotOwned(ctx, postID)
	}

	return r.GetByID(ctx, postID)
}

// Delete removes a post owned by userID. Comments and upvotes cascade.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.missingOrNotOwned(ctx, postID)
	}
	return nil
}

// missingOrNotOwned explains why an owner-scoped write touched no row.
func (r *postRepository) missingOrNotOwned(ctx context.Context, postID int64) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if exists {
		return model.ErrNotPostOwner
	}
	return model.ErrPostNotFound
}

func (r *postRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	var id int64
	err := tx.GetContext(ctx, &id, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("lock post: %w", err)
	}
	return nil
}

// AddToUpvoteCount shifts the counter and returns its new value.
// updated_at is left alone: an upvote is not an edit.
func (r *postRepository) AddToUpvoteCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `
		UPDATE posts SET upvote_count = upvote_count + $2
		WHERE id = $1
		RETURNING upvote_count
	`, postID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update upvote count: %w", err)
	}
	return count, nil
}

// GetRecentPostsByUser returns a user's newest posts as feed scores
// (for follow backfill).
func (r *postRepository) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, ` + scoreExpr + ` AS timestamp
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.selectScores(ctx, query, userID, limit)
}

// GetFeedPostScores returns the newest posts of all userIDs for cache warming.
func (r *postRepository) GetFeedPostScores(ctx context.Context, userIDs []int64, limit int) ([]cache.PostScore, error) {
	if len(userIDs) == 0 {
		return []cache.PostScore{}, nil
	}

	query := `
		SELECT id, ` + scoreExpr + ` AS timestamp
		FROM posts
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.selectScores(ctx, query, pq.Array(userIDs), limit)
}

func (r *postRepository) selectScores(ctx context.Context, query string, args ...interface{}) ([]cache.PostScore, error) {
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get post scores: %w", err)
	}

	posts := make([]cache.PostScore, len(rows))
	for i, row := range rows {
		posts[i] = cache.PostScore{PostID: row.ID, Timestamp: row.Timestamp}
	}
	return posts, nil
}

func (r *postRepository) GetFeedPage(ctx context.Context, userIDs []int64, before *cache.PostScore, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	if len(userIDs) == 0 {
		return posts, nil
	}

	var beforeTS, beforeID *int64
	if before != nil {
		beforeTS, beforeID = &before.Timestamp, &before.PostID
	}

	err := r.db.SelectContext(ctx, &posts, postSelect+`
		WHERE p.user_id = ANY($1)
		  AND ($2::bigint IS NULL OR (p.created_at, p.id) < (to_timestamp($2::bigint / 1000.0), $3::bigint))
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $4
	`, pq.Array(userIDs), beforeTS, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("get feed page: %w", err)
	}
	return posts, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
