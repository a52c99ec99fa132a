package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/murmurhq/murmur/backend/internal/models"
)

// FeedCache is the typed façade the services use: per-user recent-post
// lists, per-user home-feed snapshots, and the global trending set, all
// stored as JSON-serialized ContentSummary values.
//
// Everything here is a derived, disposable view. Callers log failures and
// fall back to the database; no method here is on a correctness path.
type FeedCache struct {
	cache Cache
}

// NewFeedCache wraps a Cache capability.
func NewFeedCache(c Cache) *FeedCache {
	return &FeedCache{cache: c}
}

// PushRecent prepends a post summary to the owner's recent list and trims it
// to RecentListCap.
func (fc *FeedCache) PushRecent(ctx context.Context, userID string, summary models.ContentSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	key := recentPostsKey(userID)
	if err := fc.cache.LPush(ctx, key, string(raw)); err != nil {
		return err
	}
	return fc.cache.LTrim(ctx, key, 0, RecentListCap-1)
}

// RecentRange reads a slice of the owner's recent list. An empty result is
// indistinguishable from a cold cache; callers treat it as a miss and fall
// back to the database.
func (fc *FeedCache) RecentRange(ctx context.Context, userID string, offset, limit int) ([]models.ContentSummary, error) {
	if limit <= 0 {
		return []models.ContentSummary{}, nil
	}

	raws, err := fc.cache.LRange(ctx, recentPostsKey(userID), int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, err
	}
	return unmarshalSummaries(raws)
}

// RecentLen reports how many entries the owner's recent list holds.
func (fc *FeedCache) RecentLen(ctx context.Context, userID string) (int64, error) {
	return fc.cache.LLen(ctx, recentPostsKey(userID))
}

// RewriteRecent replaces the cached entry matching the summary's post id in
// place. A missing entry is not an error; the list simply was not warm.
func (fc *FeedCache) RewriteRecent(ctx context.Context, userID string, summary models.ContentSummary) error {
	key := recentPostsKey(userID)
	raws, err := fc.cache.LRange(ctx, key, 0, RecentListCap-1)
	if err != nil {
		return err
	}

	for i, raw := range raws {
		var existing models.ContentSummary
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			continue
		}
		if existing.ID != summary.ID {
			continue
		}

		updated, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		return fc.cache.LSet(ctx, key, int64(i), string(updated))
	}
	return nil
}

// InvalidateRecent drops the owner's recent list wholesale. Deletes are rare
// compared to reads, so rebuilding on the next read beats patching.
func (fc *FeedCache) InvalidateRecent(ctx context.Context, userID string) error {
	return fc.cache.Del(ctx, recentPostsKey(userID))
}

// WarmRecent rebuilds the owner's recent list from store rows, newest first.
func (fc *FeedCache) WarmRecent(ctx context.Context, userID string, summaries []models.ContentSummary) error {
	key := recentPostsKey(userID)
	if err := fc.cache.Del(ctx, key); err != nil {
		return err
	}
	if len(summaries) == 0 {
		return nil
	}

	// LPush reverses argument order, so push oldest first to end with the
	// newest entry at the head.
	raws := make([]string, 0, len(summaries))
	for i := len(summaries) - 1; i >= 0; i-- {
		raw, err := json.Marshal(summaries[i])
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		raws = append(raws, string(raw))
	}

	if err := fc.cache.LPush(ctx, key, raws...); err != nil {
		return err
	}
	return fc.cache.LTrim(ctx, key, 0, RecentListCap-1)
}

// HomeFeedSnapshot returns the cached follow-graph sample for a user, or
// ErrMiss once the 10-minute snapshot has expired.
func (fc *FeedCache) HomeFeedSnapshot(ctx context.Context, userID string) ([]models.ContentSummary, error) {
	raw, err := fc.cache.Get(ctx, homeFeedKey(userID))
	if err != nil {
		return nil, err
	}

	var summaries []models.ContentSummary
	if err := json.Unmarshal([]byte(raw), &summaries); err != nil {
		return nil, fmt.Errorf("unmarshal home feed snapshot: %w", err)
	}
	return summaries, nil
}

// StoreHomeFeedSnapshot caches the follow-graph sample with the standard TTL.
func (fc *FeedCache) StoreHomeFeedSnapshot(ctx context.Context, userID string, summaries []models.ContentSummary) error {
	raw, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshal home feed snapshot: %w", err)
	}
	return fc.cache.SetEx(ctx, homeFeedKey(userID), string(raw), HomeFeedTTL)
}

// ReplaceTrending swaps the global trending set wholesale. Scores are the
// engagement metric; stale members from the previous run disappear with the
// replace.
func (fc *FeedCache) ReplaceTrending(ctx context.Context, summaries []models.ContentSummary) error {
	members := make([]ZMember, 0, len(summaries))
	for _, s := range summaries {
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		members = append(members, ZMember{Member: string(raw), Score: s.EngagementScore()})
	}
	return fc.cache.ZReplace(ctx, trendingKey, members)
}

// TopTrending reads up to limit trending summaries, highest score first.
func (fc *FeedCache) TopTrending(ctx context.Context, limit int) ([]models.ContentSummary, error) {
	if limit <= 0 {
		return []models.ContentSummary{}, nil
	}

	members, err := fc.cache.ZRevRangeWithScores(ctx, trendingKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	raws := make([]string, len(members))
	for i, m := range members {
		raws[i] = m.Member
	}
	return unmarshalSummaries(raws)
}

func unmarshalSummaries(raws []string) ([]models.ContentSummary, error) {
	summaries := make([]models.ContentSummary, 0, len(raws))
	for _, raw := range raws {
		var s models.ContentSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
