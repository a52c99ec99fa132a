// Package search keeps the external text index in sync with committed
// content. It is a collaborator contract: the core calls it after commit,
// fire-and-forget, and never rolls back a mutation on an indexing failure.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/murmurhq/murmur/backend/internal/models"
)

// IndexPosts is the posts search index name
const IndexPosts = "posts"

// Indexer is what the mutation service needs from the search collaborator.
type Indexer interface {
	IndexPost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, postID string) error
	UpdatePostEngagement(ctx context.Context, postID string, likeCount, commentCount int) error
}

// Client wraps the Elasticsearch client
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates a new Elasticsearch client from ELASTICSEARCH_URL,
// defaulting to localhost.
func NewClient() (*Client, error) {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{es: es}

	// Verify connection
	if _, err := es.Info(); err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	return client, nil
}

// InitializeIndices creates the posts index with its mapping. Safe to call
// on every startup; an existing index is left alone.
func (c *Client) InitializeIndices(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":      map[string]interface{}{"type": "keyword"},
				"user_id": map[string]interface{}{"type": "keyword"},
				"username": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword"},
					},
				},
				"body": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"like_count":    map[string]interface{}{"type": "integer"},
				"comment_count": map[string]interface{}{"type": "integer"},
				"created_at":    map[string]interface{}{"type": "date"},
			},
		},
	}
	return c.createIndex(ctx, IndexPosts, mapping)
}

func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	exists, err := c.es.Indices.Exists([]string{indexName}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err := c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: [%s]", indexName, res.Status())
	}
	return nil
}

// IndexPost indexes a post document for search
func (c *Client) IndexPost(ctx context.Context, post *models.Post) error {
	body, err := json.Marshal(PostToSearchDoc(post))
	if err != nil {
		return fmt.Errorf("failed to marshal post document: %w", err)
	}

	res, err := c.es.Index(IndexPosts, bytes.NewReader(body),
		c.es.Index.WithDocumentID(post.ID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index post: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error indexing post: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// DeletePost removes a post document from the index
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	res, err := c.es.Delete(IndexPosts, postID, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete post from index: %w", err)
	}
	defer res.Body.Close()

	// 404 means the document was never indexed; nothing to retract
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error deleting post from index: [%s]", res.Status())
	}
	return nil
}

// UpdatePostEngagement patches the denormalized counters on an indexed post.
func (c *Client) UpdatePostEngagement(ctx context.Context, postID string, likeCount, commentCount int) error {
	update := map[string]interface{}{
		"doc": map[string]interface{}{
			"like_count":    likeCount,
			"comment_count": commentCount,
		},
	}
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal engagement update: %w", err)
	}

	res, err := c.es.Update(IndexPosts, postID, bytes.NewReader(body), c.es.Update.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to update post engagement: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error updating post engagement: [%s]", res.Status())
	}
	return nil
}

// Health pings the cluster
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: [%s]", res.Status())
	}
	return nil
}

// normalizeBody trims the body stored in the index; the full text lives in
// the database.
func normalizeBody(body string) string {
	return strings.TrimSpace(body)
}
