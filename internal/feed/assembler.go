// Package feed builds the paginated home and archive feeds from cache and
// store. The cache is advisory everywhere here: a miss or failure falls back
// to the database and at most costs a warmer query.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/murmurhq/murmur/backend/internal/metrics"
	"github.com/murmurhq/murmur/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// DefaultLimit and MaxLimit bound page sizes for both feeds.
	DefaultLimit = 20
	MaxLimit     = 50

	// followSampleWindow and followSampleAuthors bound the follow-graph
	// sample: one random post per followed author, recent authors only.
	followSampleWindow  = 7 * 24 * time.Hour
	followSampleAuthors = 20
)

// Page is one paginated feed response. NextCursor is empty when the feed is
// exhausted.
type Page struct {
	Items      []models.ContentSummary `json:"items"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// Assembler combines store queries and cache reads into feed pages.
type Assembler struct {
	db        *gorm.DB
	feedCache *cache.FeedCache
}

// NewAssembler creates a feed assembler.
func NewAssembler(db *gorm.DB, feedCache *cache.FeedCache) *Assembler {
	return &Assembler{db: db, feedCache: feedCache}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// PersonalPosts returns a page of the user's own archive, newest first. The
// cursor is an offset into that ordering. Warm reads come straight from the
// cached recent list; a cold read queries the store and lazily rebuilds the
// cache.
func (a *Assembler) PersonalPosts(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFeedGeneration("archive", time.Since(start).Seconds())
	}()

	limit = clampLimit(limit)
	offset, err := decodeOffsetCursor(cursor)
	if err != nil {
		return nil, err
	}

	cached, cachedLen, cacheErr := a.readRecentCache(ctx, userID, offset, limit)
	if cacheErr == nil && cachedLen > 0 && int64(offset) < cachedLen {
		metrics.RecordCacheHit("recent_list")
		next := ""
		end := int64(offset + len(cached))
		// The list caps at RecentListCap entries; a full list may hide
		// older rows that only the store still has.
		if end < cachedLen || cachedLen == cache.RecentListCap {
			next = encodeOffsetCursor(int(end))
		}
		return &Page{Items: cached, NextCursor: next}, nil
	}
	metrics.RecordCacheMiss("recent_list")

	var posts []models.Post
	err = a.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load personal posts: %w", err)
	}

	items := make([]models.ContentSummary, len(posts))
	for i := range posts {
		items[i] = models.SummarizePost(&posts[i])
	}

	next := ""
	if len(items) == limit {
		next = encodeOffsetCursor(offset + len(items))
	}

	a.warmRecentCache(ctx, userID)

	return &Page{Items: items, NextCursor: next}, nil
}

// readRecentCache reads one window of the cached recent list plus its length.
func (a *Assembler) readRecentCache(ctx context.Context, userID string, offset, limit int) ([]models.ContentSummary, int64, error) {
	length, err := a.feedCache.RecentLen(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if length == 0 {
		return nil, 0, nil
	}

	items, err := a.feedCache.RecentRange(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, length, nil
}

// warmRecentCache rebuilds the user's recent list from the store. Failures
// only cost the next reader a store query.
func (a *Assembler) warmRecentCache(ctx context.Context, userID string) {
	var posts []models.Post
	err := a.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(cache.RecentListCap).
		Find(&posts).Error
	if err != nil {
		logger.WarnWithFields("Failed to load posts for cache warm", err)
		return
	}

	summaries := make([]models.ContentSummary, len(posts))
	for i := range posts {
		summaries[i] = models.SummarizePost(&posts[i])
	}

	if err := a.feedCache.WarmRecent(ctx, userID, summaries); err != nil {
		logger.WarnWithFields("Failed to warm recent cache", err)
	}
}

// HomeFeed assembles the discovery feed from three sources: globally
// visible posts, a follow-graph sample, and the trending set. It shuffles
// the merged page uniformly.
//
// Because the page is shuffled, cursoring by last-seen id does not give a
// no-duplicate, no-gap traversal. That is accepted: this endpoint is for
// discovery, and callers must not rely on exhaustive enumeration.
func (a *Assembler) HomeFeed(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFeedGeneration("home", time.Since(start).Seconds())
	}()

	limit = clampLimit(limit)
	lastID, err := decodeIDCursor(cursor)
	if err != nil {
		return nil, err
	}

	// Collect the sources in parallel; only the primary store query is
	// allowed to fail the feed.
	type sourceResult struct {
		items  []models.ContentSummary
		source string
		err    error
	}
	results := make(chan sourceResult, 3)

	go func() {
		items, err := a.globalPosts(ctx, userID, lastID, limit)
		results <- sourceResult{items: items, source: "global", err: err}
	}()
	go func() {
		items, err := a.followSample(ctx, userID)
		results <- sourceResult{items: items, source: "following", err: err}
	}()
	go func() {
		items, err := a.feedCache.TopTrending(ctx, limit)
		results <- sourceResult{items: items, source: "trending", err: err}
	}()

	merged := make([]models.ContentSummary, 0, limit*3)
	for i := 0; i < 3; i++ {
		result := <-results
		if result.err != nil {
			if result.source == "global" {
				return nil, result.err
			}
			logger.Warn("Home feed source failed",
				zap.String("source", result.source),
				zap.Error(result.err))
			continue
		}
		merged = append(merged, result.items...)
	}

	// Deduplicate by post id
	seen := make(map[string]bool, len(merged))
	unique := merged[:0]
	for _, item := range merged {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		unique = append(unique, item)
	}

	rand.Shuffle(len(unique), func(i, j int) {
		unique[i], unique[j] = unique[j], unique[i]
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}

	next := ""
	if len(unique) > 0 {
		next = encodeIDCursor(unique[len(unique)-1].ID)
	}

	return &Page{Items: unique, NextCursor: next}, nil
}

// globalPosts is the primary home-feed source: posts by public authors or by
// the requesting user, walking backwards from the cursor id.
func (a *Assembler) globalPosts(ctx context.Context, userID, lastID string, limit int) ([]models.ContentSummary, error) {
	query := a.db.WithContext(ctx).
		Model(&models.Post{}).
		Preload("User").
		Joins("JOIN users ON users.id = posts.user_id").
		Where("users.is_public = ? OR posts.user_id = ?", true, userID)
	if lastID != "" {
		query = query.Where("posts.id < ?", lastID)
	}

	var posts []models.Post
	err := query.
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load global posts: %w", err)
	}

	items := make([]models.ContentSummary, len(posts))
	for i := range posts {
		items[i] = models.SummarizePost(&posts[i])
	}
	return items, nil
}

// followSample picks one random recent post per followed author, so
// low-volume authors get the same visibility as prolific ones. The sample is
// snapshotted for ten minutes; within that window every page reuses it.
func (a *Assembler) followSample(ctx context.Context, userID string) ([]models.ContentSummary, error) {
	snapshot, err := a.feedCache.HomeFeedSnapshot(ctx, userID)
	if err == nil {
		metrics.RecordCacheHit("home_snapshot")
		return snapshot, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}
	metrics.RecordCacheMiss("home_snapshot")

	var followedIDs []string
	err = a.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Limit(followSampleAuthors).
		Pluck("following_id", &followedIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load followed authors: %w", err)
	}

	cutoff := time.Now().Add(-followSampleWindow)
	items := make([]models.ContentSummary, 0, len(followedIDs))
	for _, authorID := range followedIDs {
		var post models.Post
		err := a.db.WithContext(ctx).
			Preload("User").
			Where("user_id = ? AND created_at > ?", authorID, cutoff).
			Order("RANDOM()").
			Limit(1).
			First(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to sample followed author: %w", err)
		}
		items = append(items, models.SummarizePost(&post))
	}

	if err := a.feedCache.StoreHomeFeedSnapshot(ctx, userID, items); err != nil {
		logger.WarnWithFields("Failed to store home feed snapshot", err)
	}

	return items, nil
}

// Trending serves the cached trending set, falling back to a store query
// before the first ranking run has populated it.
func (a *Assembler) Trending(ctx context.Context, limit int) ([]models.ContentSummary, error) {
	limit = clampLimit(limit)

	items, err := a.feedCache.TopTrending(ctx, limit)
	if err != nil {
		logger.WarnWithFields("Failed to read trending set", err)
	}
	if len(items) > 0 {
		metrics.RecordCacheHit("trending")
		return items, nil
	}
	metrics.RecordCacheMiss("trending")

	var posts []models.Post
	err = a.db.WithContext(ctx).
		Preload("User").
		Order("like_count DESC, comment_count DESC, created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trending posts: %w", err)
	}

	items = make([]models.ContentSummary, len(posts))
	for i := range posts {
		items[i] = models.SummarizePost(&posts[i])
	}
	return items, nil
}
