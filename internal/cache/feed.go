package cache

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedCachePrefix is the key prefix for user feed caches
	FeedCachePrefix = "feed:user:"

	// FeedCacheCap is the maximum number of posts to cache per user
	FeedCacheCap = 500

	// FeedCacheTTL is the TTL for feed cache (7 days)
	FeedCacheTTL = 7 * 24 * time.Hour
)

// PostScore is a post with its feed score, the creation time in unix
// milliseconds.
type PostScore struct {
	PostID    int64
	Timestamp int64
}

// FeedCache stores each user's home feed as a capped sorted set of post ids.
type FeedCache interface {
	// AddPost adds a post to a user's feed, trimming to the cap and
	// refreshing the TTL. Missing feeds are left missing so a later read
	// warms them completely.
	AddPost(ctx context.Context, userID, postID int64, timestamp int64) error

	// RemovePosts removes posts from a user's feed.
	RemovePosts(ctx context.Context, userID int64, postIDs ...int64) error

	// GetFeed returns post ids newest first. With a cursor it returns posts
	// strictly older than cursorScore, or with the same score and a smaller id.
	GetFeed(ctx context.Context, userID int64, cursor *PostScore, limit int) ([]PostScore, error)

	// WarmCache bulk-inserts posts into a user's feed.
	WarmCache(ctx context.Context, userID int64, posts []PostScore) error

	// Exists reports whether the user has a feed entry. The service warms
	// the feed when it does not.
	Exists(ctx context.Context, userID int64) (bool, error)

	// Invalidate drops a user's feed entirely.
	Invalidate(ctx context.Context, userID int64) error
}

// RedisFeedCache implements FeedCache using Redis Sorted Sets.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a new FeedCache backed by Redis.
func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

// emptyFeedMember marks a warmed feed with no posts. Post ids start at 1.
const emptyFeedMember = 0

func feedKey(userID int64) string {
	return fmt.Sprintf("%s%d", FeedCachePrefix, userID)
}

// addIfPresent runs ZADD, trim and EXPIRE only when the key exists.
var addIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
redis.call("ZREMRANGEBYRANK", KEYS[1], 0, -tonumber(ARGV[3]) - 1)
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 1
`)

func (c *RedisFeedCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	key := feedKey(userID)

	added, err := addIfPresent.Run(ctx, c.client, []string{key},
		timestamp, strconv.FormatInt(postID, 10), FeedCacheCap, FeedCacheTTL.Milliseconds()).Int()
	if err != nil {
		log.Printf("[FeedCache] AddPost FAILED: user=%d post=%d err=%v", userID, postID, err)
		return fmt.Errorf("add post to feed: %w", err)
	}

	log.Printf("[FeedCache] AddPost: user=%d post=%d added=%t", userID, postID, added == 1)
	return nil
}

func (c *RedisFeedCache) RemovePosts(ctx context.Context, userID int64, postIDs ...int64) error {
	if len(postIDs) == 0 {
		return nil
	}

	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = strconv.FormatInt(id, 10)
	}

	removed, err := c.client.ZRem(ctx, feedKey(userID), members...).Result()
	if err != nil {
		log.Printf("[FeedCache] RemovePosts FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("remove posts from feed: %w", err)
	}

	log.Printf("[FeedCache] RemovePosts OK: user=%d requested=%d removed=%d", userID, len(postIDs), removed)
	return nil
}

func (c *RedisFeedCache) GetFeed(ctx context.Context, userID int64, cursor *PostScore, limit int) ([]PostScore, error) {
	key := feedKey(userID)
	startTime := time.Now()

	upper := "+inf"
	if cursor != nil {
		// Inclusive so posts sharing the cursor's millisecond are not lost;
		// ids at or above the cursor are filtered below.
		upper = strconv.FormatInt(cursor.Timestamp, 10)
	}

	// Over-fetch by a small margin to absorb same-score entries that the
	// cursor filter drops.
	results, err := c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   upper,
		Count: int64(limit + 16),
	}).Result()
	if err != nil {
		log.Printf("[FeedCache] GetFeed FAILED: user=%d err=%v", userID, err)
		return nil, fmt.Errorf("get feed: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, FeedCacheTTL)

	window := make([]PostScore, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse post id %q: %w", member, err)
		}
		if id == emptyFeedMember {
			continue
		}
		window = append(window, PostScore{PostID: id, Timestamp: int64(z.Score)})
	}

	// Redis orders equal scores by member bytes, so "9" comes before "10".
	// Re-sort ties by numeric id to match the cursor.
	sort.SliceStable(window, func(i, j int) bool {
		if window[i].Timestamp != window[j].Timestamp {
			return window[i].Timestamp > window[j].Timestamp
		}
		return window[i].PostID > window[j].PostID
	})

	posts := make([]PostScore, 0, limit)
	for _, p := range window {
		if cursor != nil && p.Timestamp == cursor.Timestamp && p.PostID >= cursor.PostID {
			continue
		}
		posts = append(posts, p)
		if len(posts) == limit {
			break
		}
	}

	log.Printf("[FeedCache] GetFeed OK: user=%d returned=%d duration=%v", userID, len(posts), time.Since(startTime))
	return posts, nil
}

func (c *RedisFeedCache) WarmCache(ctx context.Context, userID int64, posts []PostScore) error {
	key := feedKey(userID)
	startTime := time.Now()

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(posts) > 0 {
		members := make([]redis.Z, len(posts))
		for i, p := range posts {
			members[i] = redis.Z{
				Score:  float64(p.Timestamp),
				Member: strconv.FormatInt(p.PostID, 10),
			}
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	} else {
		// Placeholder keeps an empty feed from being re-warmed on every read.
		pipe.ZAdd(ctx, key, redis.Z{Score: 0, Member: strconv.FormatInt(emptyFeedMember, 10)})
	}
	pipe.Expire(ctx, key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] WarmCache FAILED: user=%d posts=%d err=%v", userID, len(posts), err)
		return fmt.Errorf("warm cache: %w", err)
	}

	log.Printf("[FeedCache] WarmCache OK: user=%d posts=%d duration=%v", userID, len(posts), time.Since(startTime))
	return nil
}

func (c *RedisFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		log.Printf("[FeedCache] Exists FAILED: user=%d err=%v", userID, err)
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return exists > 0, nil
}

func (c *RedisFeedCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, feedKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate feed: %w", err)
	}
	return nil
}
