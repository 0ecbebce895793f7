package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
)

// profileSelect loads a profile with its username and both follow counts.
// The counts always come from the follows table.
const profileSelect = `
	SELECT p.id, p.user_id, u.username, p.name, p.bio, p.birth_date, p.location, p.picture_key,
	       (SELECT COUNT(*) FROM follows f WHERE f.followee_id = p.id) AS amount_followers,
	       (SELECT COUNT(*) FROM follows f WHERE f.follower_id = p.id) AS amount_following,
	       p.created_at, p.updated_at
	FROM profiles p
	JOIN users u ON u.id = p.user_id
`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// EnsureForUser creates the profile on first sight of a user.
func (r *profileRepository) EnsureForUser(ctx context.Context, tx *sqlx.Tx, userID int64, name string) (*model.Profile, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	var p model.Profile
	if err := tx.GetContext(ctx, &p, profileSelect+` WHERE p.user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("get profile after insert: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, profileSelect+` WHERE p.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, profileSelect+` WHERE p.user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by user: %w", err)
	}
	return &p, nil
}

// LockByID locks the profile row until tx ends. The returned profile carries
// no follow counts.
func (r *profileRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Profile, error) {
	query := `
		SELECT p.id, p.user_id, u.username, p.name, p.bio, p.birth_date, p.location, p.picture_key,
		       p.created_at, p.updated_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
		FOR UPDATE OF p
	`
	var p model.Profile
	err := tx.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	return &p, nil
}

// GetCounts reads the follower and following counts inside tx, so they
// reflect the transaction's own writes.
func (r *profileRepository) GetCounts(ctx context.Context, tx *sqlx.Tx, id int64) (int, int, error) {
	var counts struct {
		Followers int `db:"followers"`
		Following int `db:"following"`
	}
	err := tx.GetContext(ctx, &counts, `
		SELECT (SELECT COUNT(*) FROM follows WHERE followee_id = $1) AS followers,
		       (SELECT COUNT(*) FROM follows WHERE follower_id = $1) AS following
	`, id)
	if err != nil {
		return 0, 0, fmt.Errorf("get follow counts: %w", err)
	}
	return counts.Followers, counts.Following, nil
}

func (r *profileRepository) List(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	profiles := []model.Profile{}
	err := r.db.SelectContext(ctx, &profiles, profileSelect+`
		ORDER BY p.name, p.id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles`); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// Update writes the editable profile fields.
func (r *profileRepository) Update(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = $2, bio = $3, birth_date = $4, location = $5, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Bio, p.BirthDate, p.Location)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, model.ErrProfileNotFound
	}
	return r.GetByID(ctx, p.ID)
}

// SetPicture swaps the picture key and returns the one it replaced.
func (r *profileRepository) SetPicture(ctx context.Context, id int64, key string) (*string, error) {
	query := `
		UPDATE profiles p
		SET picture_key = $2, updated_at = NOW()
		FROM (SELECT id, picture_key FROM profiles WHERE id = $1 FOR UPDATE) old
		WHERE p.id = old.id
		RETURNING old.picture_key
	`
	var previous *string
	err := r.db.GetContext(ctx, &previous, query, id, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set profile picture: %w", err)
	}
	return previous, nil
}
