package search

import (
	"github.com/murmurhq/murmur/backend/internal/models"
)

// PostToSearchDoc converts a Post model to a search document
func PostToSearchDoc(post *models.Post) map[string]interface{} {
	return map[string]interface{}{
		"id":            post.ID,
		"user_id":       post.UserID,
		"username":      post.User.Username,
		"body":          normalizeBody(post.Body),
		"like_count":    post.LikeCount,
		"comment_count": post.CommentCount,
		"created_at":    post.CreatedAt,
	}
}
