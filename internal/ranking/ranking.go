// Package ranking recomputes the global trending set on a fixed schedule,
// fully outside the request path.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/murmurhq/murmur/backend/internal/metrics"
	"github.com/murmurhq/murmur/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultInterval is how often the trending set is recomputed. Tunable via
// RANKING_INTERVAL; not correctness-relevant.
const DefaultInterval = 24 * time.Hour

// TopN is how many posts the trending set holds.
const TopN = 50

// Service periodically rebuilds the cached trending set from the store.
type Service struct {
	db        *gorm.DB
	feedCache *cache.FeedCache
	ctx       context.Context
	cancel    context.CancelFunc
	interval  time.Duration
}

// NewService creates a ranking service. A zero interval means DefaultInterval.
func NewService(db *gorm.DB, feedCache *cache.FeedCache, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		db:        db,
		feedCache: feedCache,
		ctx:       ctx,
		cancel:    cancel,
		interval:  interval,
	}
}

// Start begins the periodic recompute loop in its own goroutine.
func (s *Service) Start() {
	logger.Log.Info("Starting ranking service", zap.Duration("interval", s.interval))
	go s.run()
}

// Stop cancels the loop.
func (s *Service) Stop() {
	logger.Log.Info("Stopping ranking service")
	s.cancel()
}

func (s *Service) run() {
	// Run immediately on startup so the trending set is populated before
	// the first interval elapses.
	s.recompute()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.recompute()
		case <-s.ctx.Done():
			return
		}
	}
}

// recompute wraps RunOnce with the stale-but-available policy: a failed run
// is logged and the previous cached set stays untouched.
func (s *Service) recompute() {
	start := time.Now()
	if err := s.RunOnce(s.ctx); err != nil {
		metrics.RecordRankingRun(false)
		logger.ErrorWithFields("Trending recompute failed", err)
		return
	}
	metrics.RecordRankingRun(true)
	logger.Log.Info("Trending set recomputed", zap.Duration("took", time.Since(start)))
}

// RunOnce reads the top posts by engagement from the store and replaces the
// cached trending set wholesale, so members that lost their score since the
// last run disappear rather than linger.
func (s *Service) RunOnce(ctx context.Context) error {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("like_count DESC, comment_count DESC, created_at DESC").
		Limit(TopN).
		Find(&posts).Error
	if err != nil {
		return fmt.Errorf("failed to load top posts: %w", err)
	}

	summaries := make([]models.ContentSummary, len(posts))
	for i := range posts {
		summaries[i] = models.SummarizePost(&posts[i])
	}

	if err := s.feedCache.ReplaceTrending(ctx, summaries); err != nil {
		return fmt.Errorf("failed to replace trending set: %w", err)
	}
	return nil
}
