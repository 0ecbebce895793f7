package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		switch pqCode(err) {
		case pqCheckViolation:
			return false, model.ErrCannotFollowSelf
		case pqForeignKeyViolation:
			return false, model.ErrProfileNotFound
		}
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	result, err := tx.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListFollowers returns the profiles following profileID, most recent edge first.
func (r *followRepository) ListFollowers(ctx context.Context, profileID int64) ([]model.Profile, error) {
	profiles := []model.Profile{}
	err := r.db.SelectContext(ctx, &profiles, profileSelect+`
		JOIN follows e ON e.follower_id = p.id
		WHERE e.followee_id = $1
		ORDER BY e.created_at DESC, p.id
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return profiles, nil
}

// ListFollowing returns the profiles profileID follows, most recent edge first.
func (r *followRepository) ListFollowing(ctx context.Context, profileID int64) ([]model.Profile, error) {
	profiles := []model.Profile{}
	err := r.db.SelectContext(ctx, &profiles, profileSelect+`
		JOIN follows e ON e.followee_id = p.id
		WHERE e.follower_id = $1
		ORDER BY e.created_at DESC, p.id
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return profiles, nil
}

func (r *followRepository) GetFollowerUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT fp.user_id
		FROM follows e
		JOIN profiles fp ON fp.id = e.follower_id
		JOIN profiles tp ON tp.id = e.followee_id
		WHERE tp.user_id = $1
	`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}

func (r *followRepository) GetFolloweeUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT tp.user_id
		FROM follows e
		JOIN profiles fp ON fp.id = e.follower_id
		JOIN profiles tp ON tp.id = e.followee_id
		WHERE fp.user_id = $1
	`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get followee ids: %w", err)
	}
	return ids, nil
}
