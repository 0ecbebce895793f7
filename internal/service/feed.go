package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"postservice/internal/cache"
	"postservice/internal/model"
	"postservice/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of posts per page
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of posts per page
	FeedMaxLimit = 50

	// CacheWarmLimit is max posts to fetch when warming cache
	CacheWarmLimit = cache.FeedCacheCap
)

// FeedService serves the home feed: posts of followed profiles plus the
// user's own, newest first. With a nil cache every page is read from
// PostgreSQL.
type FeedService struct {
	feedCache  cache.FeedCache
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	assets     AssetResolver
}

func NewFeedService(
	feedCache cache.FeedCache,
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	assets AssetResolver,
) *FeedService {
	return &FeedService{
		feedCache:  feedCache,
		postRepo:   postRepo,
		followRepo: followRepo,
		assets:     assets,
	}
}

// GetFeed returns one page of the user's feed after cursor.
//
// Flow:
// 1. Warm the user's cache from PostgreSQL if it does not exist
// 2. Read post ids older than the cursor from the cache
// 3. Hydrate them from PostgreSQL, skipping posts deleted since
// 4. Build the next cursor from the last cache entry of the page
//
// Any cache failure falls back to the keyset query.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	var before *cache.PostScore
	if cursor != nil && *cursor != "" {
		parsed, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, err
		}
		before = &parsed
	}

	if s.feedCache != nil {
		resp, err := s.fromCache(ctx, userID, before, limit)
		if err == nil {
			log.Printf("[FeedService] GetFeed OK (cache): user=%d posts=%d hasMore=%v duration=%v",
				userID, len(resp.Posts), resp.HasMore, time.Since(startTime))
			return resp, nil
		}
		log.Printf("[FeedService] Cache path failed for user=%d, falling back to DB: %v", userID, err)
	}

	resp, err := s.fromDB(ctx, userID, before, limit)
	if err != nil {
		return nil, err
	}
	log.Printf("[FeedService] GetFeed OK (db): user=%d posts=%d hasMore=%v duration=%v",
		userID, len(resp.Posts), resp.HasMore, time.Since(startTime))
	return resp, nil
}

func (s *FeedService) fromCache(ctx context.Context, userID int64, before *cache.PostScore, limit int) (*model.FeedResponse, error) {
	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Printf("[FeedService] Cache miss for user=%d, warming...", userID)
		if err := s.warmCache(ctx, userID); err != nil {
			return nil, err
		}
	}

	entries, err := s.feedCache.GetFeed(ctx, userID, before, limit+1)
	if err != nil {
		return nil, err
	}
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}
	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	resp := &model.FeedResponse{Posts: toPostListViews(posts, s.assets), HasMore: hasMore}
	if hasMore {
		c := formatFeedCursor(entries[len(entries)-1])
		resp.NextCursor = &c
	}
	return resp, nil
}

// warmCache populates the user's feed cache from PostgreSQL.
func (s *FeedService) warmCache(ctx context.Context, userID int64) error {
	authorIDs, err := s.feedAuthors(ctx, userID)
	if err != nil {
		return err
	}

	posts, err := s.postRepo.GetFeedPostScores(ctx, authorIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get feed post scores: %w", err)
	}

	return s.feedCache.WarmCache(ctx, userID, posts)
}

func (s *FeedService) fromDB(ctx context.Context, userID int64, before *cache.PostScore, limit int) (*model.FeedResponse, error) {
	authorIDs, err := s.feedAuthors(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetFeedPage(ctx, authorIDs, before, limit+1)
	if err != nil {
		return nil, err
	}
	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	resp := &model.FeedResponse{Posts: toPostListViews(posts, s.assets), HasMore: hasMore}
	if hasMore {
		last := posts[len(posts)-1]
		c := formatFeedCursor(cache.PostScore{PostID: last.ID, Timestamp: last.CreatedAt.UnixMilli()})
		resp.NextCursor = &c
	}
	return resp, nil
}

// feedAuthors returns the users whose posts appear in userID's feed.
func (s *FeedService) feedAuthors(ctx context.Context, userID int64) ([]int64, error) {
	followeeIDs, err := s.followRepo.GetFolloweeUserIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get followee ids: %w", err)
	}
	return append(followeeIDs, userID), nil
}

// parseFeedCursor parses an "id:timestamp" cursor.
func parseFeedCursor(cursor string) (cache.PostScore, error) {
	idPart, scorePart, ok := strings.Cut(cursor, ":")
	if !ok {
		return cache.PostScore{}, model.ErrInvalidCursor
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return cache.PostScore{}, model.ErrInvalidCursor
	}
	score, err := strconv.ParseInt(scorePart, 10, 64)
	if err != nil {
		return cache.PostScore{}, model.ErrInvalidCursor
	}
	return cache.PostScore{PostID: id, Timestamp: score}, nil
}

func formatFeedCursor(p cache.PostScore) string {
	return fmt.Sprintf("%d:%d", p.PostID, p.Timestamp)
}
