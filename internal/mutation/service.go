// Package mutation is the only writer of social-graph state. Every public
// operation runs as a single store transaction covering the source rows, the
// denormalized counters, and the notification events; cache and search-index
// side effects happen after commit and are safe to lose.
package mutation

import (
	"errors"
	"unicode/utf8"

	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/search"
	"gorm.io/gorm"
)

// ErrBodyTooLong is returned before any write when a post or comment body
// exceeds models.MaxBodyRunes.
var ErrBodyTooLong = errors.New("mutation: body exceeds maximum length")

// errNotApplicable aborts a transaction for the duplicate/no-op cases that
// the public API reports as a plain false result: duplicate like or follow,
// unlike without a like, missing or unowned target. Callers never learn
// which of those happened.
var errNotApplicable = errors.New("mutation: not applicable")

// Service executes all state-changing social actions.
type Service struct {
	db        *gorm.DB
	feedCache *cache.FeedCache
	search    search.Indexer
}

// NewService creates the mutation service. feedCache may not be nil; search
// may be nil when no index is configured.
func NewService(db *gorm.DB, feedCache *cache.FeedCache, indexer search.Indexer) *Service {
	return &Service{
		db:        db,
		feedCache: feedCache,
		search:    indexer,
	}
}

// validateBody enforces the shared content length limit. Counted in runes,
// not bytes.
func validateBody(body string) error {
	if utf8.RuneCountInString(body) > models.MaxBodyRunes {
		return ErrBodyTooLong
	}
	return nil
}

// finishBool maps the transaction outcome onto the (bool, error) contract:
// errNotApplicable becomes (false, nil), anything else propagates.
func finishBool(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errNotApplicable) {
		return false, nil
	}
	return false, err
}
