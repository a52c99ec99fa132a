// Package handlers is the thin HTTP surface over the core services. Every
// handler binds the request, calls one service operation, and maps the
// (bool, error) contract onto status codes; no social-graph logic lives here.
package handlers

import (
	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/feed"
	"github.com/murmurhq/murmur/backend/internal/mutation"
	"github.com/murmurhq/murmur/backend/internal/search"
)

// Handlers holds the service dependencies for all HTTP handlers
type Handlers struct {
	mutations *mutation.Service
	feeds     *feed.Assembler
	cache     cache.Cache
	search    *search.Client // nil when search is disabled
}

// NewHandlers creates the handler set.
func NewHandlers(mutations *mutation.Service, feeds *feed.Assembler, c cache.Cache, es *search.Client) *Handlers {
	return &Handlers{
		mutations: mutations,
		feeds:     feeds,
		cache:     c,
		search:    es,
	}
}
