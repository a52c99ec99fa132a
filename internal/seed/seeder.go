// Package seed populates a database with realistic development data. All
// engagement flows through the mutation service so counters, events, and
// cache state come out consistent rather than hand-written.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/mutation"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db        *gorm.DB
	mutations *mutation.Service
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, mutations *mutation.Service) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, mutations: mutations}
}

// SeedDev populates a development database with realistic volumes.
func (s *Seeder) SeedDev(ctx context.Context) error {
	logger.Log.Info("creating users")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("creating posts")
	posts, err := s.seedPosts(ctx, users, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("creating follows")
	if err := s.seedFollows(ctx, users, 400); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("creating comments")
	if err := s.seedComments(ctx, users, posts, 600); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("creating likes")
	if err := s.seedLikes(ctx, users, posts, 1500); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	return nil
}

// SeedTest creates a small fixed cohort for integration testing.
func (s *Seeder) SeedTest(ctx context.Context) error {
	fixtures := []struct {
		username    string
		displayName string
	}{
		{"alice", "Alice Smith"},
		{"bob", "Bob Johnson"},
		{"charlie", "Charlie Brown"},
	}

	for _, f := range fixtures {
		var existing models.User
		if err := s.db.Where("username = ?", f.username).First(&existing).Error; err == nil {
			continue
		}

		user := models.User{
			Email:       f.username + "@example.com",
			Username:    f.username,
			DisplayName: f.displayName,
			IsPublic:    true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", f.username, err)
		}
	}
	return nil
}

// Clean removes all rows from seeded tables. Destructive.
func (s *Seeder) Clean() error {
	tables := []string{"events", "likes", "follows", "comments", "posts", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Email:       fmt.Sprintf("%s%d@%s", gofakeit.Username(), i, gofakeit.DomainName()),
			Username:    fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName: gofakeit.Name(),
			Bio:         gofakeit.Sentence(8),
			AvatarURL:   fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s%d", gofakeit.Username(), i),
			IsPublic:    rand.Intn(10) > 1, // ~80% public
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		body := gofakeit.Sentence(4 + rand.Intn(15))
		if len(body) > 280 {
			body = body[:280]
		}

		var media []string
		if rand.Intn(5) == 0 {
			media = []string{gofakeit.URL()}
		}

		post, err := s.mutations.CreatePost(ctx, author.ID, body, media)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []models.User, count int) error {
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		target := users[rand.Intn(len(users))]
		// Self-follows and duplicates come back (false, nil); fine for seeding.
		if _, err := s.mutations.Follow(ctx, follower.ID, target.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedComments(ctx context.Context, users []models.User, posts []*models.Post, count int) error {
	var created []*models.Comment
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var parentID *string
		if len(created) > 0 && rand.Intn(4) == 0 {
			parent := created[rand.Intn(len(created))]
			if parent.PostID == post.ID {
				parentID = &parent.ID
			}
		}

		comment, ok, err := s.mutations.AddComment(ctx, post.ID, author.ID, gofakeit.Sentence(3+rand.Intn(10)), parentID)
		if err != nil {
			return err
		}
		if ok {
			created = append(created, comment)
		}
	}
	return nil
}

func (s *Seeder) seedLikes(ctx context.Context, users []models.User, posts []*models.Post, count int) error {
	for i := 0; i < count; i++ {
		actor := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]
		if _, err := s.mutations.Like(ctx, post.ID, models.TargetPost, actor.ID); err != nil {
			return err
		}
	}
	return nil
}
