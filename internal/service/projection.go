package service

import (
	"strings"

	"postservice/internal/model"
)

// AssetResolver turns a stored object key into a public URL.
type AssetResolver interface {
	URL(key string) string
}

// PublicURLResolver prefixes keys with a static base URL. It is used when
// object storage is not configured; an empty BaseURL returns keys unchanged.
type PublicURLResolver struct {
	BaseURL string
}

func (r PublicURLResolver) URL(key string) string {
	if r.BaseURL == "" {
		return key
	}
	return strings.TrimSuffix(r.BaseURL, "/") + "/" + key
}

func resolveURL(assets AssetResolver, key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	url := assets.URL(*key)
	return &url
}

func toPostListView(p model.Post, assets AssetResolver) model.PostListView {
	return model.PostListView{
		ID:                 p.ID,
		UserID:             p.UserID,
		Title:              p.Title,
		Content:            p.Content,
		ImageURL:           resolveURL(assets, p.ImageKey),
		UpvoteCount:        p.UpvoteCount,
		AmountCommentaries: p.CommentCount,
		CreatedAt:          p.CreatedAt,
	}
}

func toPostListViews(posts []model.Post, assets AssetResolver) []model.PostListView {
	views := make([]model.PostListView, len(posts))
	for i, p := range posts {
		views[i] = toPostListView(p, assets)
	}
	return views
}

func toPostDetailView(p model.Post, comments []model.Comment, assets AssetResolver) *model.PostDetailView {
	return &model.PostDetailView{
		PostListView: toPostListView(p, assets),
		UpdatedAt:    p.UpdatedAt,
		Comments:     toCommentViews(comments, assets),
	}
}

func toCommentView(c model.Comment, assets AssetResolver) model.CommentView {
	return model.CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		ImageURL:  resolveURL(assets, c.ImageKey),
		CreatedAt: c.CreatedAt,
	}
}

func toCommentViews(comments []model.Comment, assets AssetResolver) []model.CommentView {
	views := make([]model.CommentView, len(comments))
	for i, c := range comments {
		views[i] = toCommentView(c, assets)
	}
	return views
}

func toUserListView(p model.Profile, assets AssetResolver) model.UserListView {
	var birthDate *string
	if p.BirthDate != nil {
		s := p.BirthDate.Format(model.BirthDateLayout)
		birthDate = &s
	}
	return model.UserListView{
		ID:              p.ID,
		UserID:          p.UserID,
		Username:        p.Username,
		Name:            p.Name,
		Bio:             p.Bio,
		BirthDate:       birthDate,
		Location:        p.Location,
		PictureURL:      resolveURL(assets, p.PictureKey),
		AmountFollowers: p.FollowerCount,
		AmountFollowing: p.FollowingCount,
	}
}

func toUserListViews(profiles []model.Profile, assets AssetResolver) []model.UserListView {
	views := make([]model.UserListView, len(profiles))
	for i, p := range profiles {
		views[i] = toUserListView(p, assets)
	}
	return views
}
