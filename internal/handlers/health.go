package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurhq/murmur/backend/internal/database"
)

// Health reports the status of the service and its dependencies
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if err := database.Health(); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	if err := h.cache.Ping(c.Request.Context()); err != nil {
		checks["cache"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		checks["cache"] = "healthy"
	}

	if h.search != nil {
		if err := h.search.Health(c.Request.Context()); err != nil {
			// Search is an async collaborator; its outage degrades rather
			// than fails the service.
			checks["search"] = "degraded: " + err.Error()
		} else {
			checks["search"] = "healthy"
		}
	} else {
		checks["search"] = "disabled"
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
