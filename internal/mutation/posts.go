package mutation

import (
	"context"

	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/murmurhq/murmur/backend/internal/metrics"
	"github.com/murmurhq/murmur/backend/internal/models"
	"gorm.io/gorm"
)

// CreatePost validates and persists a new post, then pushes its summary onto
// the owner's cached recent list. Attachment URLs arrive already resolved by
// the upload layer; only strings are stored.
func (s *Service) CreatePost(ctx context.Context, ownerID string, body string, mediaURLs []string) (*models.Post, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}

	var owner models.User
	if err := s.db.WithContext(ctx).First(&owner, "id = ?", ownerID).Error; err != nil {
		return nil, err
	}

	post := models.Post{
		UserID:    ownerID,
		Body:      body,
		MediaURLs: mediaURLs,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&owner).UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordMutation("create_post", true)

	post.User = owner

	// Cache and search updates only after the commit; losing them costs a
	// cold read, not consistency.
	if err := s.feedCache.PushRecent(ctx, ownerID, models.SummarizePost(&post)); err != nil {
		logger.WarnWithFields("Failed to push post to recent cache", err)
	}
	s.indexPostAsync(&post)

	return &post, nil
}

// UpdatePost rewrites a post body. The owner scope in the WHERE clause makes
// "not found" and "not owned" indistinguishable: both report false.
func (s *Service) UpdatePost(ctx context.Context, postID, ownerID, newBody string) (bool, error) {
	if err := validateBody(newBody); err != nil {
		return false, err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND user_id = ?", postID, ownerID).
		Update("body", newBody)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		metrics.RecordMutation("update_post", false)
		return false, nil
	}
	metrics.RecordMutation("update_post", true)

	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").First(&post, "id = ?", postID).Error; err == nil {
		if err := s.feedCache.RewriteRecent(ctx, ownerID, models.SummarizePost(&post)); err != nil {
			logger.WarnWithFields("Failed to rewrite cached post", err)
		}
		s.indexPostAsync(&post)
	}

	return true, nil
}

// DeletePost removes a post and everything hanging off it (comments, likes
// on the post and its comments, and events about it) in one transaction.
func (s *Service) DeletePost(ctx context.Context, postID, ownerID string) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "id = ? AND user_id = ?", postID, ownerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotApplicable
			}
			return err
		}

		var commentIDs []string
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		subjectIDs := append([]string{postID}, commentIDs...)

		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetPost, postID).
			Or("target_type = ? AND target_id IN ?", models.TargetComment, subjectIDs).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}

		if err := tx.Where("subject_id IN ?", subjectIDs).Delete(&models.Event{}).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&post).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ? AND post_count > 0", ownerID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})

	applied, err := finishBool(err)
	metrics.RecordMutation("delete_post", applied)
	if !applied || err != nil {
		return applied, err
	}

	// Wholesale invalidation: deletes are rare, patching the list is not
	// worth the edge cases.
	if err := s.feedCache.InvalidateRecent(ctx, ownerID); err != nil {
		logger.WarnWithFields("Failed to invalidate recent cache", err)
	}
	s.deleteFromIndexAsync(postID)

	return true, nil
}

// indexPostAsync mirrors a committed post into the search index. Indexing is
// fire-and-forget: a failure is logged and the index catches up on the next
// write.
func (s *Service) indexPostAsync(post *models.Post) {
	if s.search == nil {
		return
	}
	snapshot := *post
	go func() {
		if err := s.search.IndexPost(context.Background(), &snapshot); err != nil {
			logger.WarnWithFields("Failed to index post", err)
		}
	}()
}

func (s *Service) deleteFromIndexAsync(postID string) {
	if s.search == nil {
		return
	}
	go func() {
		if err := s.search.DeletePost(context.Background(), postID); err != nil {
			logger.WarnWithFields("Failed to delete post from index", err)
		}
	}()
}

func (s *Service) updateEngagementAsync(postID string) {
	if s.search == nil {
		return
	}
	go func() {
		ctx := context.Background()
		var post models.Post
		if err := s.db.Select("like_count", "comment_count").First(&post, "id = ?", postID).Error; err != nil {
			return
		}
		if err := s.search.UpdatePostEngagement(ctx, postID, post.LikeCount, post.CommentCount); err != nil {
			logger.WarnWithFields("Failed to update post engagement in search index", err)
		}
	}()
}
