package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TargetType identifies what kind of content a like points at.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// EventType identifies what action produced a notification.
type EventType string

const (
	EventFollow  EventType = "follow"
	EventLike    EventType = "like"
	EventComment EventType = "comment"
)

// Like records one user liking one piece of content. The unique index over
// (user_id, target_type, target_id) is the only duplicate-like guard; there
// is no application-level locking.
type Like struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string     `gorm:"not null;index;uniqueIndex:idx_likes_unique,priority:1" json:"user_id"`
	TargetType TargetType `gorm:"not null;uniqueIndex:idx_likes_unique,priority:2" json:"target_type"`
	TargetID   string     `gorm:"not null;index;uniqueIndex:idx_likes_unique,priority:3" json:"target_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Follow records an ordered (follower, following) relation. The unique index
// over the pair resolves concurrent duplicate follows: exactly one insert
// wins, and only the winner adjusts the counters.
type Follow struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID  string `gorm:"not null;index;uniqueIndex:idx_follows_unique,priority:1" json:"follower_id"`
	FollowingID string `gorm:"not null;index;uniqueIndex:idx_follows_unique,priority:2" json:"following_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Event is a notification row delivered to the receiver by polling.
// Details hold everything needed to render the notification without a
// secondary lookup; the schema depends on Type.
type Event struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string    `gorm:"not null;index" json:"sender_id"`
	Sender     User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string    `gorm:"not null;index" json:"receiver_id"`
	Type       EventType `gorm:"not null" json:"type"`

	// SubjectID points at the content the event is about (the liked or
	// commented post/comment). Indexed so content deletion can cascade to
	// its events without querying inside the details blob. Null for follows.
	SubjectID *string `gorm:"type:uuid;index" json:"-"`

	Details JSONMap `gorm:"type:jsonb;serializer:json" json:"details"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ContentSummary is the compact post representation stored in the cache: the
// recent-list entries, the home-feed snapshot, and the trending set members
// are all serialized ContentSummary values.
type ContentSummary struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Body         string    `json:"body"`
	MediaURLs    []string  `json:"media_urls,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// SummarizePost builds the cached summary for a post.
func SummarizePost(p *Post) ContentSummary {
	return ContentSummary{
		ID:           p.ID,
		UserID:       p.UserID,
		Username:     p.User.Username,
		Body:         p.Body,
		MediaURLs:    p.MediaURLs,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
	}
}

// EngagementScore is the trending metric: raw like volume plus comment
// volume, no time decay. The ranking job recomputes it wholesale.
func (s ContentSummary) EngagementScore() float64 {
	return float64(s.LikeCount + s.CommentCount)
}
