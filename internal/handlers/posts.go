package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/mutation"
	"github.com/murmurhq/murmur/backend/internal/util"
)

// CreatePost creates a new post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Body      string   `json:"body" binding:"required"`
		MediaURLs []string `json:"media_urls,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post, err := h.mutations.CreatePost(c.Request.Context(), userID, req.Body, req.MediaURLs)
	if err != nil {
		if errors.Is(err, mutation.ErrBodyTooLong) {
			util.RespondValidationError(c, "body", "body exceeds maximum length")
			return
		}
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost retrieves a single post with its top-level comments
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.Preload("User").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	// First page of top-level comments rides along; the comments endpoint
	// pages through the rest.
	var comments []models.Comment
	if err := database.DB.
		Preload("User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at DESC").
		Limit(20).
		Find(&comments).Error; err == nil {
		post.Comments = comments
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// UpdatePost rewrites a post body. Only the owner succeeds; everyone else
// sees 404.
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.mutations.UpdatePost(c.Request.Context(), postID, userID, req.Body)
	if err != nil {
		if errors.Is(err, mutation.ErrBodyTooLong) {
			util.RespondValidationError(c, "body", "body exceeds maximum length")
			return
		}
		util.RespondInternalError(c, "Failed to update post")
		return
	}
	if !updated {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// DeletePost removes a post and its dependent rows
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	deleted, err := h.mutations.DeletePost(c.Request.Context(), postID, userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}
	if !deleted {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// CreateComment creates a comment on a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Body     string  `json:"body" binding:"required"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment, created, err := h.mutations.AddComment(c.Request.Context(), postID, userID, req.Body, req.ParentID)
	if err != nil {
		if errors.Is(err, mutation.ErrBodyTooLong) {
			util.RespondValidationError(c, "body", "body exceeds maximum length")
			return
		}
		util.RespondInternalError(c, "Failed to create comment")
		return
	}
	if !created {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments retrieves comments for a post with pagination
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	limit := util.ParseLimit(c, 20, 100)
	offset := util.ParseOffset(c)
	parentID := c.Query("parent_id") // Optional: get replies to a specific comment

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	query := database.DB.
		Preload("User").
		Where("post_id = ?", postID).
		Limit(limit).
		Offset(offset)

	if parentID != "" {
		// Replies read oldest-first, top-level newest-first
		query = query.Where("parent_id = ?", parentID).Order("created_at ASC")
	} else {
		query = query.Where("parent_id IS NULL").Order("created_at DESC")
	}

	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		util.RespondInternalError(c, "Failed to get comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}
