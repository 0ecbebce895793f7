package model

import "time"

// User is the identity record provisioned from the identity provider's token.
// The ID is the provider's subject, not generated here.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Profile is the public face of a user. Follow edges connect profiles.
// FollowerCount and FollowingCount are computed by the query that loads the
// row; they are not columns.
type Profile struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	Username       string     `db:"username"`
	Name           string     `db:"name"`
	Bio            *string    `db:"bio"`
	BirthDate      *time.Time `db:"birth_date"`
	Location       *string    `db:"location"`
	PictureKey     *string    `db:"picture_key"`
	FollowerCount  int        `db:"amount_followers"`
	FollowingCount int        `db:"amount_following"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// UpdateProfileRequest is the write shape for PATCH /me/profile.
// Nil fields are left unchanged; an empty string clears an optional field.
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	BirthDate *string `json:"birth_date"` // YYYY-MM-DD
	Location  *string `json:"location"`
}

// Profile constraints
const (
	MaxProfileNameLength     = 255
	MaxProfileBioLength      = 500
	MaxProfileLocationLength = 100
	BirthDateLayout          = "2006-01-02"
)

// User and profile errors
var (
	ErrUserNotFound      = notFoundError("user")
	ErrProfileNotFound   = notFoundError("profile")
	ErrNameTooLong       = validationError("name too long (max 255 characters)")
	ErrBioTooLong        = validationError("bio too long (max 500 characters)")
	ErrLocationTooLong   = validationError("location too long (max 100 characters)")
	ErrInvalidBirthDate  = validationError("birth_date must be a past date formatted YYYY-MM-DD")
	ErrNoFieldsToUpdate  = validationError("no fields to update")
	ErrInvalidIdentifier = validationError("invalid identifier")
)
