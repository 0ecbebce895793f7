package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"postservice/internal/cache"
	"postservice/internal/queue"
)

const (
	// backfillLimit is how many of the followee's newest posts land in the
	// follower's feed on follow.
	backfillLimit = 20

	// unfollowRemoveLimit bounds the posts removed on unfollow. Older ones
	// have already been trimmed by the cache cap in practice.
	unfollowRemoveLimit = cache.FeedCacheCap
)

// FollowerProvider returns the user ids following a user.
type FollowerProvider interface {
	GetFollowerUserIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentPostsProvider returns a user's newest posts as feed scores.
type RecentPostsProvider interface {
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
}

// Handler applies feed events to the feed cache.
type Handler struct {
	feedCache        cache.FeedCache
	followerProvider FollowerProvider
	postsProvider    RecentPostsProvider
}

func NewHandler(
	feedCache cache.FeedCache,
	followerProvider FollowerProvider,
	postsProvider RecentPostsProvider,
) *Handler {
	return &Handler{
		feedCache:        feedCache,
		followerProvider: followerProvider,
		postsProvider:    postsProvider,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	case queue.EventUserDeleted:
		err = h.feedCache.Invalidate(ctx, event.UserID)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		return fmt.Errorf("handle %s: %w", event.Type, err)
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePostCreated fans a new post out to the author's and every
// follower's feed. One failing follower does not stop the fan-out.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerUserIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	recipients := withAuthor(followers, event.AuthorID)
	var failCount int
	for _, userID := range recipients {
		if err := h.feedCache.AddPost(ctx, userID, event.PostID, event.Timestamp); err != nil {
			failCount++
		}
	}

	log.Printf("[Worker] PostCreated: post=%d fanout=%d failed=%d", event.PostID, len(recipients), failCount)
	return nil
}

// handlePostDeleted removes a post from the author's and followers' feeds.
// Feeds that still hold it after a failure skip it on hydration anyway.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerUserIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	recipients := withAuthor(followers, event.AuthorID)
	var failCount int
	for _, userID := range recipients {
		if err := h.feedCache.RemovePosts(ctx, userID, event.PostID); err != nil {
			failCount++
		}
	}

	log.Printf("[Worker] PostDeleted: post=%d fanout=%d failed=%d", event.PostID, len(recipients), failCount)
	return nil
}

func (h *Handler) handleUserFollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}

	var failCount int
	for _, p := range posts {
		if err := h.feedCache.AddPost(ctx, event.FollowerID, p.PostID, p.Timestamp); err != nil {
			failCount++
		}
	}

	log.Printf("[Worker] UserFollowed: follower=%d followee=%d backfilled=%d failed=%d",
		event.FollowerID, event.FolloweeID, len(posts), failCount)
	return nil
}

func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, unfollowRemoveLimit)
	if err != nil {
		return fmt.Errorf("get posts to remove: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	if err := h.feedCache.RemovePosts(ctx, event.FollowerID, ids...); err != nil {
		return err
	}

	log.Printf("[Worker] UserUnfollowed: follower=%d followee=%d removed=%d",
		event.FollowerID, event.FolloweeID, len(ids))
	return nil
}

// withAuthor returns followers plus the author, who sees their own posts.
func withAuthor(followers []int64, authorID int64) []int64 {
	recipients := make([]int64, 0, len(followers)+1)
	recipients = append(recipients, followers...)
	return append(recipients, authorID)
}
