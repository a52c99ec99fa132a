package ranking

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type RankingTestSuite struct {
	suite.Suite
	db        *gorm.DB
	feedCache *cache.FeedCache
	svc       *Service
	author    *models.User
}

func (suite *RankingTestSuite) SetupSuite() {
	path := filepath.Join(suite.T().TempDir(), "ranking_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), database.MigrateDB(db))
	suite.db = db
}

func (suite *RankingTestSuite) SetupTest() {
	for _, table := range []string{"posts", "users"} {
		require.NoError(suite.T(), suite.db.Exec("DELETE FROM "+table).Error)
	}

	suite.feedCache = cache.NewFeedCache(cache.NewMemoryCache())
	suite.svc = NewService(suite.db, suite.feedCache, time.Hour)

	suite.author = &models.User{
		Email:       "ranker@test.com",
		Username:    "ranker",
		DisplayName: "Ranker",
		IsPublic:    true,
	}
	require.NoError(suite.T(), suite.db.Create(suite.author).Error)
}

func (suite *RankingTestSuite) createPost(body string, likes, comments int) *models.Post {
	post := &models.Post{
		UserID:       suite.author.ID,
		Body:         body,
		LikeCount:    likes,
		CommentCount: comments,
	}
	require.NoError(suite.T(), suite.db.Create(post).Error)
	return post
}

func (suite *RankingTestSuite) TestRunOncePopulatesTrending() {
	low := suite.createPost("low", 1, 0)
	high := suite.createPost("high", 10, 5)
	mid := suite.createPost("mid", 3, 2)

	require.NoError(suite.T(), suite.svc.RunOnce(context.Background()))

	items, err := suite.feedCache.TopTrending(context.Background(), 10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 3)
	assert.Equal(suite.T(), high.ID, items[0].ID)
	assert.Equal(suite.T(), mid.ID, items[1].ID)
	assert.Equal(suite.T(), low.ID, items[2].ID)
}

func (suite *RankingTestSuite) TestRunOnceCapsAtTopN() {
	for i := 0; i < TopN+10; i++ {
		suite.createPost(fmt.Sprintf("post %d", i), i, 0)
	}

	require.NoError(suite.T(), suite.svc.RunOnce(context.Background()))

	items, err := suite.feedCache.TopTrending(context.Background(), TopN+10)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), items, TopN)
}

func (suite *RankingTestSuite) TestRunOnceDropsStaleMembers() {
	stale := suite.createPost("yesterday's news", 20, 0)

	require.NoError(suite.T(), suite.svc.RunOnce(context.Background()))

	// The post loses relevance; the next run must not keep the old member.
	require.NoError(suite.T(), suite.db.Delete(stale).Error)
	fresh := suite.createPost("today's news", 5, 0)

	require.NoError(suite.T(), suite.svc.RunOnce(context.Background()))

	items, err := suite.feedCache.TopTrending(context.Background(), 10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	assert.Equal(suite.T(), fresh.ID, items[0].ID)
}

func (suite *RankingTestSuite) TestStartRunsImmediately() {
	suite.createPost("eager", 4, 0)

	suite.svc.Start()
	defer suite.svc.Stop()

	require.Eventually(suite.T(), func() bool {
		items, err := suite.feedCache.TopTrending(context.Background(), 10)
		return err == nil && len(items) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRankingTestSuite(t *testing.T) {
	suite.Run(t, new(RankingTestSuite))
}
