package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/util"
)

// LikeContent likes a post or comment
// POST /api/v1/likes
func (h *Handlers) LikeContent(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required,oneof=post comment"`
		TargetID   string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	applied, err := h.mutations.Like(c.Request.Context(), req.TargetID, models.TargetType(req.TargetType), userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to like content")
		return
	}

	// applied=false covers both a missing target and an existing like; either
	// way the caller's intent is already satisfied or unsatisfiable.
	c.JSON(http.StatusOK, gin.H{"liked": applied})
}

// UnlikeContent removes a like from a post or comment
// DELETE /api/v1/likes
func (h *Handlers) UnlikeContent(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required,oneof=post comment"`
		TargetID   string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	applied, err := h.mutations.Unlike(c.Request.Context(), req.TargetID, models.TargetType(req.TargetType), userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to unlike content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unliked": applied})
}

// FollowUser follows another user
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	applied, err := h.mutations.Follow(c.Request.Context(), userID, targetID)
	if err != nil {
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": applied})
}

// UnfollowUser unfollows another user
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	applied, err := h.mutations.Unfollow(c.Request.Context(), userID, targetID)
	if err != nil {
		util.RespondInternalError(c, "Failed to unfollow user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unfollowed": applied})
}
