package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"postservice/internal/cache"
	"postservice/internal/model"
)

// Transactor runs fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	// Upsert creates the user row if it does not exist yet.
	Upsert(ctx context.Context, tx *sqlx.Tx, id int64, username string) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// LockForUpdate blocks new rows referencing the user until tx ends.
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
}

type ProfileRepository interface {
	// EnsureForUser creates the user's profile if missing and returns it.
	EnsureForUser(ctx context.Context, tx *sqlx.Tx, userID int64, name string) (*model.Profile, error)
	GetByID(ctx context.Context, id int64) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	// LockByID takes a row lock on the profile for the rest of tx.
	LockByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Profile, error)
	GetCounts(ctx context.Context, tx *sqlx.Tx, id int64) (followers int, following int, err error)
	List(ctx context.Context, limit, offset int) ([]model.Profile, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, profile *model.Profile) (*model.Profile, error)
	// SetPicture stores the new picture key and returns the previous one.
	SetPicture(ctx context.Context, id int64, key string) (previous *string, err error)
}

type FollowRepository interface {
	// Create inserts an edge; inserted is false when the edge already existed.
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (inserted bool, err error)
	// Delete removes an edge; removed is false when there was none.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (removed bool, err error)
	ListFollowers(ctx context.Context, profileID int64) ([]model.Profile, error)
	ListFollowing(ctx context.Context, profileID int64) ([]model.Profile, error)
	// GetFollowerUserIDs returns the user ids of everyone following the
	// given user's profile. Used by the feed fan-out.
	GetFollowerUserIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeUserIDs(ctx context.Context, userID int64) ([]int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, title string, content, imageKey *string) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	List(ctx context.Context, ownerID *int64, limit, offset int) ([]model.Post, error)
	Count(ctx context.Context, ownerID *int64) (int, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Post, error)
	// Update writes the post only if userID owns it.
	Update(ctx context.Context, postID, userID int64, req model.UpdatePostRequest) (*model.Post, error)
	// Delete removes the post only if userID owns it. Comments and upvotes cascade.
	Delete(ctx context.Context, postID, userID int64) error
	// LockForUpdate takes a row lock on the post for the rest of tx.
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, postID int64) error
	AddToUpvoteCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error)
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	GetFeedPostScores(ctx context.Context, userIDs []int64, limit int) ([]cache.PostScore, error)
	// GetFeedPage is the uncached feed query: posts by userIDs older than the
	// (before, beforeID) keyset, newest first.
	GetFeedPage(ctx context.Context, userIDs []int64, before *cache.PostScore, limit int) ([]model.Post, error)
}

type CommentRepository interface {
	Create(ctx context.Context, postID, userID int64, content, imageKey *string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
}

type UpvoteRepository interface {
	// Create inserts the (user, post) upvote. A duplicate is ErrUpvoteConflict.
	Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error
	Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (removed bool, err error)
	// ReleaseAllByUser deletes every upvote of the user and decrements the
	// counters of the affected posts in the same statement.
	ReleaseAllByUser(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error)
}
