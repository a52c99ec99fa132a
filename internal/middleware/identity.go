package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/models"
)

// IdentityHeader carries the already-authenticated user id. Authentication
// itself lives in the gateway in front of this service; by the time a
// request arrives here its identity has been resolved, and this middleware
// only loads the user row and rejects requests without one.
const IdentityHeader = "X-User-ID"

// IdentityMiddleware resolves the authenticated user into the request
// context under "user_id" and "user".
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(IdentityHeader)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user", &user)
		c.Next()
	}
}
