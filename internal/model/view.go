package model

import "time"

// PostListView is the list shape of a post: no nested collections.
type PostListView struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Title              string    `json:"title"`
	Content            *string   `json:"content"`
	ImageURL           *string   `json:"image_url"`
	UpvoteCount        int       `json:"upvote_count"`
	AmountCommentaries int       `json:"amount_commentaries"`
	CreatedAt          time.Time `json:"created_at"`
}

// PostDetailView embeds the post's comments.
type PostDetailView struct {
	PostListView
	UpdatedAt time.Time     `json:"updated_at"`
	Comments  []CommentView `json:"comments"`
}

type CommentView struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   *string   `json:"content"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListView is the list shape of a profile with its derived counts.
type UserListView struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	Username        string  `json:"username"`
	Name            string  `json:"name"`
	Bio             *string `json:"bio"`
	BirthDate       *string `json:"birth_date"`
	Location        *string `json:"location"`
	PictureURL      *string `json:"picture_url"`
	AmountFollowers int     `json:"amount_followers"`
	AmountFollowing int     `json:"amount_following"`
}

// UserDetailView embeds list-shaped following, followers and posts.
type UserDetailView struct {
	UserListView
	Following []UserListView `json:"following"`
	Followers []UserListView `json:"followers"`
	Posts     []PostListView `json:"posts"`
}
