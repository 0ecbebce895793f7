package service

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
	"postservice/internal/repository"
)

// EngagementService owns upvotes and comments on posts.
type EngagementService struct {
	tx          repository.Transactor
	postRepo    repository.PostRepository
	upvoteRepo  repository.UpvoteRepository
	commentRepo repository.CommentRepository
	assets      AssetResolver
}

func NewEngagementService(
	tx repository.Transactor,
	postRepo repository.PostRepository,
	upvoteRepo repository.UpvoteRepository,
	commentRepo repository.CommentRepository,
	assets AssetResolver,
) *EngagementService {
	return &EngagementService{
		tx:          tx,
		postRepo:    postRepo,
		upvoteRepo:  upvoteRepo,
		commentRepo: commentRepo,
		assets:      assets,
	}
}

// ToggleUpvote removes the user's upvote on the post if there is one and
// adds it otherwise. The row and the counter change in one transaction that
// holds the post's row lock, so concurrent toggles on a post are serialized.
func (s *EngagementService) ToggleUpvote(ctx context.Context, userID, postID int64) (*model.UpvoteResult, error) {
	result := model.UpvoteResult{PostID: postID}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.postRepo.LockForUpdate(ctx, tx, postID); err != nil {
			return err
		}

		removed, err := s.upvoteRepo.Delete(ctx, tx, userID, postID)
		if err != nil {
			return err
		}

		delta := -1
		if !removed {
			if err := s.upvoteRepo.Create(ctx, tx, userID, postID); err != nil {
				return err
			}
			delta = 1
		}

		count, err := s.postRepo.AddToUpvoteCount(ctx, tx, postID, delta)
		if err != nil {
			return err
		}

		result.Upvoted = !removed
		result.UpvoteCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[EngagementService] ToggleUpvote: user=%d post=%d upvoted=%t count=%d",
		userID, postID, result.Upvoted, result.UpvoteCount)
	return &result, nil
}

// AddComment attaches a comment to a post. Any authenticated user may
// comment on any post. Content and image are both optional.
func (s *EngagementService) AddComment(ctx context.Context, userID, postID int64, req model.CreateCommentRequest) (*model.CommentView, error) {
	content := emptyToNil(req.Content)
	imageKey, err := validateImageKey(req.ImageKey, model.CommentImageFolder)
	if err != nil {
		return nil, err
	}
	if content != nil && utf8.RuneCountInString(*content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	comment, err := s.commentRepo.Create(ctx, postID, userID, content, imageKey)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	view := toCommentView(*comment, s.assets)
	return &view, nil
}

// ListComments returns a post's comments oldest first.
func (s *EngagementService) ListComments(ctx context.Context, postID int64) ([]model.CommentView, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return toCommentViews(comments, s.assets), nil
}
