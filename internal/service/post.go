package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"postservice/internal/model"
	"postservice/internal/queue"
	"postservice/internal/repository"
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	publisher   queue.Publisher
	assets      AssetResolver
	paginator   Paginator
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	publisher queue.Publisher,
	assets AssetResolver,
	paginator Paginator,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
		assets:      assets,
		paginator:   paginator,
	}
}

// Create stores a post owned by userID and publishes an event for fan-out.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.PostDetailView, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if err := validatePostContent(req.Content); err != nil {
		return nil, err
	}
	imageKey, err := validateImageKey(req.ImageKey, model.PostImageFolder)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.Create(ctx, userID, title, emptyToNil(req.Content), imageKey)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.publish(ctx, queue.NewPostCreatedEvent(post.ID, userID, post.CreatedAt))

	return toPostDetailView(*post, nil, s.assets), nil
}

// Update applies a partial update. Only the owner may update a post.
func (s *PostService) Update(ctx context.Context, userID, postID int64, req model.UpdatePostRequest) (*model.PostDetailView, error) {
	if req.Title == nil && req.Content == nil && req.ImageKey == nil {
		return nil, model.ErrNoFieldsToUpdate
	}
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		req.Title = &title
	}
	if err := validatePostContent(req.Content); err != nil {
		return nil, err
	}
	if req.ImageKey != nil && *req.ImageKey != "" {
		if _, err := validateImageKey(req.ImageKey, model.PostImageFolder); err != nil {
			return nil, err
		}
	}

	post, err := s.postRepo.Update(ctx, postID, userID, req)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return toPostDetailView(*post, comments, s.assets), nil
}

// Delete hard-deletes a post owned by userID and publishes an event to
// remove it from feeds.
func (s *PostService) Delete(ctx context.Context, userID, postID int64) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	s.publish(ctx, queue.NewPostDeletedEvent(postID, userID))
	return nil
}

// List returns one page of posts in creation order, optionally only those
// of ownerID.
func (s *PostService) List(ctx context.Context, ownerID *int64, params model.PageParams) (*model.PostPage, error) {
	info, err := s.paginator.resolve(params)
	if err != nil {
		return nil, err
	}

	count, err := s.postRepo.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.paginator.complete(&info, count); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx, ownerID, info.PageSize, info.Offset())
	if err != nil {
		return nil, err
	}

	return &model.PostPage{PageInfo: info, Results: toPostListViews(posts, s.assets)}, nil
}

// GetDetail returns a post with its comments.
func (s *PostService) GetDetail(ctx context.Context, postID int64) (*model.PostDetailView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return toPostDetailView(*post, comments, s.assets), nil
}

// publish is best-effort: the write has already committed and a lost event
// only delays feed freshness until the cache is rebuilt.
func (s *PostService) publish(ctx context.Context, event queue.FeedEvent) {
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.Printf("[PostService] Failed to publish %s event: post=%d err=%v", event.Type, event.PostID, err)
		return
	}
	log.Printf("[PostService] Published %s: post=%d msgID=%s", event.Type, event.PostID, msgID)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", model.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > model.MaxPostTitleLength {
		return "", model.ErrTitleTooLong
	}
	return title, nil
}

func validatePostContent(content *string) error {
	if content != nil && utf8.RuneCountInString(*content) > model.MaxPostContentLength {
		return model.ErrPostContentLong
	}
	return nil
}

// validateImageKey accepts a missing or empty key, or one inside folder.
func validateImageKey(key *string, folder string) (*string, error) {
	if key == nil || *key == "" {
		return nil, nil
	}
	if !model.ValidImageKey(*key, folder) {
		return nil, model.ErrInvalidImageKey
	}
	return key, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
