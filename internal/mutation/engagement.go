package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/murmurhq/murmur/backend/internal/metrics"
	"github.com/murmurhq/murmur/backend/internal/models"
	"gorm.io/gorm"
)

// likeTarget is the slice of a post or comment the like path needs: who owns
// it and what it says (for the notification details).
type likeTarget struct {
	OwnerID string
	Body    string
	PostID  string // the post itself, or the comment's parent post
}

func loadTarget(tx *gorm.DB, targetType models.TargetType, targetID string) (*likeTarget, error) {
	switch targetType {
	case models.TargetPost:
		var post models.Post
		if err := tx.Select("id", "user_id", "body").First(&post, "id = ?", targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errNotApplicable
			}
			return nil, err
		}
		return &likeTarget{OwnerID: post.UserID, Body: post.Body, PostID: post.ID}, nil

	case models.TargetComment:
		var comment models.Comment
		if err := tx.Select("id", "user_id", "body", "post_id").First(&comment, "id = ?", targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errNotApplicable
			}
			return nil, err
		}
		return &likeTarget{OwnerID: comment.UserID, Body: comment.Body, PostID: comment.PostID}, nil

	default:
		return nil, fmt.Errorf("mutation: unknown target type %q", targetType)
	}
}

func contentModel(targetType models.TargetType) interface{} {
	if targetType == models.TargetComment {
		return &models.Comment{}
	}
	return &models.Post{}
}

// Like inserts a like row and bumps the target's like_count in the same
// transaction. A duplicate like resolves through the unique index, not
// locking: the losing insert reports false. The owner gets a notification
// unless they liked their own content.
func (s *Service) Like(ctx context.Context, targetID string, targetType models.TargetType, actorID string) (bool, error) {
	var target *likeTarget

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		target, err = loadTarget(tx, targetType, targetID)
		if err != nil {
			return err
		}

		like := models.Like{UserID: actorID, TargetType: targetType, TargetID: targetID}
		if err := tx.Create(&like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errNotApplicable
			}
			return err
		}

		if err := tx.Model(contentModel(targetType)).Where("id = ?", targetID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}

		if actorID == target.OwnerID {
			return nil
		}

		subject := targetID
		event := models.Event{
			SenderID:   actorID,
			ReceiverID: target.OwnerID,
			Type:       models.EventLike,
			SubjectID:  &subject,
			Details: models.JSONMap{
				"content_id":   targetID,
				"content_type": string(targetType),
				"content_text": target.Body,
			},
		}
		return tx.Create(&event).Error
	})

	applied, err := finishBool(err)
	metrics.RecordMutation("like", applied)
	if applied {
		s.updateEngagementAsync(target.PostID)
	}
	return applied, err
}

// Unlike deletes the like row, decrements the counter, and retracts the
// notification. Unliking something never liked is an idempotent no-op.
func (s *Service) Unlike(ctx context.Context, targetID string, targetType models.TargetType, actorID string) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", actorID, targetType, targetID).
			Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errNotApplicable
		}

		if err := tx.Model(contentModel(targetType)).Where("id = ? AND like_count > 0", targetID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
			return err
		}

		return tx.Where("sender_id = ? AND type = ? AND subject_id = ?", actorID, models.EventLike, targetID).
			Delete(&models.Event{}).Error
	})

	applied, err := finishBool(err)
	metrics.RecordMutation("unlike", applied)
	return applied, err
}

// AddComment creates a comment on a post and wires it into the denormalized
// state: post comment_count, parent comment_count for replies, and the
// owner's notification. Replies flatten to one nesting level; replying to a
// reply attaches to the original top-level comment.
//
// The boolean reports whether the target post exists; a missing post is not
// an error.
func (s *Service) AddComment(ctx context.Context, postID, actorID, body string, parentID *string) (*models.Comment, bool, error) {
	if err := validateBody(body); err != nil {
		return nil, false, err
	}

	comment := models.Comment{
		PostID: postID,
		UserID: actorID,
		Body:   body,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotApplicable
			}
			return err
		}

		if parentID != nil && *parentID != "" {
			var parent models.Comment
			if err := tx.First(&parent, "id = ? AND post_id = ?", *parentID, postID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errNotApplicable
				}
				return err
			}
			// One level of nesting only
			if parent.ParentID != nil {
				comment.ParentID = parent.ParentID
			} else {
				comment.ParentID = &parent.ID
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}

		if comment.ParentID != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
				return err
			}
		}

		if actorID == post.UserID {
			return nil
		}

		subject := postID
		event := models.Event{
			SenderID:   actorID,
			ReceiverID: post.UserID,
			Type:       models.EventComment,
			SubjectID:  &subject,
			Details: models.JSONMap{
				"post_id":    postID,
				"comment_id": comment.ID,
			},
		}
		return tx.Create(&event).Error
	})

	applied, err := finishBool(err)
	metrics.RecordMutation("add_comment", applied)
	if !applied || err != nil {
		return nil, false, err
	}

	s.updateEngagementAsync(postID)

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return &comment, true, nil
	}
	return &comment, true, nil
}
