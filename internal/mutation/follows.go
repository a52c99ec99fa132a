package mutation

import (
	"context"
	"errors"

	"github.com/murmurhq/murmur/backend/internal/metrics"
	"github.com/murmurhq/murmur/backend/internal/models"
	"gorm.io/gorm"
)

// Follow creates the (follower, following) relation and adjusts both users'
// counters in the same transaction. Concurrent duplicate follows race on the
// unique index: exactly one insert wins and only the winner touches the
// counters. Self-follows report false without writing anything.
func (s *Service) Follow(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		metrics.RecordMutation("follow", false)
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var follower models.User
		if err := tx.Select("id", "username", "display_name").First(&follower, "id = ?", followerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotApplicable
			}
			return err
		}
		var target models.User
		if err := tx.Select("id").First(&target, "id = ?", targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotApplicable
			}
			return err
		}

		follow := models.Follow{FollowerID: followerID, FollowingID: targetID}
		if err := tx.Create(&follow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errNotApplicable
			}
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}

		event := models.Event{
			SenderID:   followerID,
			ReceiverID: targetID,
			Type:       models.EventFollow,
			Details: models.JSONMap{
				"username":     follower.Username,
				"display_name": follower.DisplayName,
			},
		}
		return tx.Create(&event).Error
	})

	applied, err := finishBool(err)
	metrics.RecordMutation("follow", applied)
	return applied, err
}

// Unfollow removes the relation, decrements both counters, and retracts the
// follow notification. Unfollowing someone never followed is a no-op.
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		metrics.RecordMutation("unfollow", false)
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).
			Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errNotApplicable
		}

		if err := tx.Model(&models.User{}).Where("id = ? AND following_count > 0", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ? AND follower_count > 0", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}

		return tx.Where("sender_id = ? AND receiver_id = ? AND type = ?", followerID, targetID, models.EventFollow).
			Delete(&models.Event{}).Error
	})

	applied, err := finishBool(err)
	metrics.RecordMutation("unfollow", applied)
	return applied, err
}
