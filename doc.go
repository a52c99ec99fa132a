// Package backend provides the Murmur API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/mutation: Engagement writes and counter maintenance
// - internal/feed: Feed assembly and cursor pagination
// - internal/ranking: Trending recomputation worker
// - internal/cache: Redis cache and feed cache facade
// - internal/search: Elasticsearch indexing and queries
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (request IDs, metrics, etc.)
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
