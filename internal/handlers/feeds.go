package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurhq/murmur/backend/internal/feed"
	"github.com/murmurhq/murmur/backend/internal/util"
)

// HomeFeed returns the viewer's blended home timeline
// GET /api/v1/feed/home
func (h *Handlers) HomeFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit := util.ParseLimit(c, feed.DefaultLimit, feed.MaxLimit)
	cursor := c.Query("cursor")

	page, err := h.feeds.HomeFeed(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidCursor) {
			util.RespondBadRequest(c, "invalid cursor")
			return
		}
		util.RespondInternalError(c, "Failed to assemble feed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       page.Items,
		"next_cursor": page.NextCursor,
	})
}

// UserPosts returns a user's own posts, newest first
// GET /api/v1/users/:id/posts
func (h *Handlers) UserPosts(c *gin.Context) {
	targetID := c.Param("id")
	limit := util.ParseLimit(c, feed.DefaultLimit, feed.MaxLimit)
	cursor := c.Query("cursor")

	page, err := h.feeds.PersonalPosts(c.Request.Context(), targetID, cursor, limit)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidCursor) {
			util.RespondBadRequest(c, "invalid cursor")
			return
		}
		util.RespondInternalError(c, "Failed to load posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       page.Items,
		"next_cursor": page.NextCursor,
	})
}

// Trending returns the globally trending posts
// GET /api/v1/feed/trending
func (h *Handlers) Trending(c *gin.Context) {
	limit := util.ParseLimit(c, feed.DefaultLimit, feed.MaxLimit)

	items, err := h.feeds.Trending(c.Request.Context(), limit)
	if err != nil {
		util.RespondInternalError(c, "Failed to load trending posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
