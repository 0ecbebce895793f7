package service

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"postservice/internal/model"
	"postservice/internal/queue"
	"postservice/internal/repository"
)

type FollowService struct {
	tx          repository.Transactor
	profileRepo repository.ProfileRepository
	followRepo  repository.FollowRepository
	publisher   queue.Publisher
}

func NewFollowService(
	tx repository.Transactor,
	profileRepo repository.ProfileRepository,
	followRepo repository.FollowRepository,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		tx:          tx,
		profileRepo: profileRepo,
		followRepo:  followRepo,
		publisher:   publisher,
	}
}

// ToggleFollow makes the acting profile follow the target, or stop following
// it if it already does. The acting profile's row lock serializes toggles by
// the same actor. The counts returned are the target's after the toggle.
func (s *FollowService) ToggleFollow(ctx context.Context, actingProfileID, targetProfileID int64) (*model.FollowResult, error) {
	if actingProfileID == targetProfileID {
		return nil, model.ErrCannotFollowSelf
	}

	result := model.FollowResult{ProfileID: targetProfileID}
	var actorUserID, targetUserID int64

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		actor, err := s.profileRepo.LockByID(ctx, tx, actingProfileID)
		if err != nil {
			return err
		}
		target, err := s.profileRepo.GetByID(ctx, targetProfileID)
		if err != nil {
			return err
		}
		actorUserID, targetUserID = actor.UserID, target.UserID

		removed, err := s.followRepo.Delete(ctx, tx, actingProfileID, targetProfileID)
		if err != nil {
			return err
		}
		if !removed {
			inserted, err := s.followRepo.Create(ctx, tx, actingProfileID, targetProfileID)
			if err != nil {
				return err
			}
			if !inserted {
				return model.ErrFollowConflict
			}
		}

		followers, following, err := s.profileRepo.GetCounts(ctx, tx, targetProfileID)
		if err != nil {
			return err
		}

		result.Following = !removed
		result.AmountFollowers = followers
		result.AmountFollowing = following
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Feeds are keyed by user, so the event carries user ids.
	event := queue.NewUserUnfollowedEvent(actorUserID, targetUserID)
	if result.Following {
		event = queue.NewUserFollowedEvent(actorUserID, targetUserID)
	}
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.Printf("[FollowService] Failed to publish %s event: follower=%d followee=%d err=%v",
			event.Type, actorUserID, targetUserID, err)
	} else {
		log.Printf("[FollowService] Published %s: follower=%d followee=%d msgID=%s",
			event.Type, actorUserID, targetUserID, msgID)
	}

	return &result, nil
}
