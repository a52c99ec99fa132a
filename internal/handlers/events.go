package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/util"
)

// GetEvents returns the viewer's notification events, newest first
// GET /api/v1/events
func (h *Handlers) GetEvents(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit := util.ParseLimit(c, 20, 100)
	offset := util.ParseOffset(c)

	query := database.DB.
		Preload("Sender").
		Where("receiver_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if eventType := c.Query("type"); eventType != "" {
		query = query.Where("type = ?", eventType)
	}

	// since lets a poller fetch only what it has not seen yet
	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			util.RespondBadRequest(c, "since must be RFC3339")
			return
		}
		query = query.Where("created_at > ?", ts)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		util.RespondInternalError(c, "Failed to get events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}
