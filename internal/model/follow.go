package model

// FollowResult is the state after a follow toggle. Counts are those of the
// target profile.
type FollowResult struct {
	ProfileID       int64 `json:"profile_id"`
	Following       bool  `json:"following"`
	AmountFollowers int   `json:"amount_followers"`
	AmountFollowing int   `json:"amount_following"`
}

var (
	ErrCannotFollowSelf = validationError("cannot follow yourself")
	ErrFollowConflict   = conflictError("follow changed concurrently, retry")
)
