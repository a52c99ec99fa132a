package search

import (
	"context"
	"sync"

	"github.com/murmurhq/murmur/backend/internal/models"
)

// MockIndexer records index calls in memory for tests.
type MockIndexer struct {
	mu      sync.Mutex
	Indexed map[string]map[string]interface{}
	Deleted []string
}

// NewMockIndexer creates an empty mock index.
func NewMockIndexer() *MockIndexer {
	return &MockIndexer{Indexed: make(map[string]map[string]interface{})}
}

func (m *MockIndexer) IndexPost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Indexed[post.ID] = PostToSearchDoc(post)
	return nil
}

func (m *MockIndexer) DeletePost(ctx context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Indexed, postID)
	m.Deleted = append(m.Deleted, postID)
	return nil
}

func (m *MockIndexer) UpdatePostEngagement(ctx context.Context, postID string, likeCount, commentCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.Indexed[postID]; ok {
		doc["like_count"] = likeCount
		doc["comment_count"] = commentCount
	}
	return nil
}
