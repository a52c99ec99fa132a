package mutation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/search"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MutationServiceTestSuite exercises the write path end to end against a
// real database: counters, unique-index races, cascade deletes, and event
// bookkeeping.
type MutationServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	svc     *Service
	indexer *search.MockIndexer
	alice   *models.User
	bob     *models.User
}

func (suite *MutationServiceTestSuite) SetupSuite() {
	path := filepath.Join(suite.T().TempDir(), "mutation_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), database.MigrateDB(db))
	suite.db = db
}

func (suite *MutationServiceTestSuite) SetupTest() {
	for _, table := range []string{"events", "likes", "follows", "comments", "posts", "users"} {
		require.NoError(suite.T(), suite.db.Exec("DELETE FROM "+table).Error)
	}

	suite.indexer = search.NewMockIndexer()
	suite.svc = NewService(suite.db, cache.NewFeedCache(cache.NewMemoryCache()), suite.indexer)

	testID := fmt.Sprintf("%d", time.Now().UnixNano())
	suite.alice = &models.User{
		Email:       fmt.Sprintf("alice_%s@test.com", testID),
		Username:    fmt.Sprintf("alice_%s", testID),
		DisplayName: "Alice",
		IsPublic:    true,
	}
	require.NoError(suite.T(), suite.db.Create(suite.alice).Error)

	suite.bob = &models.User{
		Email:       fmt.Sprintf("bob_%s@test.com", testID),
		Username:    fmt.Sprintf("bob_%s", testID),
		DisplayName: "Bob",
		IsPublic:    true,
	}
	require.NoError(suite.T(), suite.db.Create(suite.bob).Error)
}

func (suite *MutationServiceTestSuite) mustCreatePost(owner *models.User, body string) *models.Post {
	post, err := suite.svc.CreatePost(context.Background(), owner.ID, body, nil)
	require.NoError(suite.T(), err)
	return post
}

func (suite *MutationServiceTestSuite) reloadUser(id string) models.User {
	var u models.User
	require.NoError(suite.T(), suite.db.First(&u, "id = ?", id).Error)
	return u
}

func (suite *MutationServiceTestSuite) reloadPost(id string) models.Post {
	var p models.Post
	require.NoError(suite.T(), suite.db.First(&p, "id = ?", id).Error)
	return p
}

func (suite *MutationServiceTestSuite) TestCreatePost() {
	post := suite.mustCreatePost(suite.alice, "first murmur")

	assert.NotEmpty(suite.T(), post.ID)
	assert.Equal(suite.T(), suite.alice.ID, post.UserID)
	assert.Equal(suite.T(), 1, suite.reloadUser(suite.alice.ID).PostCount)
}

func (suite *MutationServiceTestSuite) TestCreatePostRejectsOverlongBody() {
	_, err := suite.svc.CreatePost(context.Background(), suite.alice.ID, strings.Repeat("a", 281), nil)
	assert.ErrorIs(suite.T(), err, ErrBodyTooLong)

	// Rune count, not byte count: 280 multibyte characters pass.
	_, err = suite.svc.CreatePost(context.Background(), suite.alice.ID, strings.Repeat("é", 280), nil)
	assert.NoError(suite.T(), err)
}

func (suite *MutationServiceTestSuite) TestUpdatePostOwnerScoped() {
	post := suite.mustCreatePost(suite.alice, "draft")

	ok, err := suite.svc.UpdatePost(context.Background(), post.ID, suite.bob.ID, "hijacked")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), "draft", suite.reloadPost(post.ID).Body)

	ok, err = suite.svc.UpdatePost(context.Background(), post.ID, suite.alice.ID, "final")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "final", suite.reloadPost(post.ID).Body)
}

func (suite *MutationServiceTestSuite) TestLikeIsIdempotent() {
	post := suite.mustCreatePost(suite.alice, "like me")

	ok, err := suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), 1, suite.reloadPost(post.ID).LikeCount)

	ok, err = suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), 1, suite.reloadPost(post.ID).LikeCount)

	var likeCount int64
	suite.db.Model(&models.Like{}).Where("target_id = ?", post.ID).Count(&likeCount)
	assert.Equal(suite.T(), int64(1), likeCount)
}

func (suite *MutationServiceTestSuite) TestLikeMissingTarget() {
	ok, err := suite.svc.Like(context.Background(), "00000000-0000-0000-0000-000000000000", models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *MutationServiceTestSuite) TestLikeNotifiesOwner() {
	post := suite.mustCreatePost(suite.alice, "notify me")

	_, err := suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)

	var events []models.Event
	require.NoError(suite.T(), suite.db.Where("receiver_id = ?", suite.alice.ID).Find(&events).Error)
	require.Len(suite.T(), events, 1)
	assert.Equal(suite.T(), models.EventLike, events[0].Type)
	assert.Equal(suite.T(), suite.bob.ID, events[0].SenderID)
	assert.Equal(suite.T(), post.ID, events[0].Details["content_id"])
}

func (suite *MutationServiceTestSuite) TestSelfLikeSkipsNotification() {
	post := suite.mustCreatePost(suite.alice, "my own post")

	ok, err := suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), 1, suite.reloadPost(post.ID).LikeCount)

	var eventCount int64
	suite.db.Model(&models.Event{}).Count(&eventCount)
	assert.Equal(suite.T(), int64(0), eventCount)
}

func (suite *MutationServiceTestSuite) TestUnlike() {
	post := suite.mustCreatePost(suite.alice, "fickle crowd")

	_, err := suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)

	ok, err := suite.svc.Unlike(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), 0, suite.reloadPost(post.ID).LikeCount)

	// The notification is retracted along with the like.
	var eventCount int64
	suite.db.Model(&models.Event{}).Where("type = ?", models.EventLike).Count(&eventCount)
	assert.Equal(suite.T(), int64(0), eventCount)

	// Unliking again is a no-op; the counter never goes negative.
	ok, err = suite.svc.Unlike(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), 0, suite.reloadPost(post.ID).LikeCount)
}

func (suite *MutationServiceTestSuite) TestLikeComment() {
	post := suite.mustCreatePost(suite.alice, "parent post")
	comment, ok, err := suite.svc.AddComment(context.Background(), post.ID, suite.bob.ID, "hot take", nil)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)

	ok, err = suite.svc.Like(context.Background(), comment.ID, models.TargetComment, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	var reloaded models.Comment
	require.NoError(suite.T(), suite.db.First(&reloaded, "id = ?", comment.ID).Error)
	assert.Equal(suite.T(), 1, reloaded.LikeCount)
	assert.Equal(suite.T(), 0, suite.reloadPost(post.ID).LikeCount)
}

func (suite *MutationServiceTestSuite) TestAddComment() {
	post := suite.mustCreatePost(suite.alice, "discuss")

	comment, ok, err := suite.svc.AddComment(context.Background(), post.ID, suite.bob.ID, "interesting", nil)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Nil(suite.T(), comment.ParentID)
	assert.Equal(suite.T(), 1, suite.reloadPost(post.ID).CommentCount)

	var events []models.Event
	require.NoError(suite.T(), suite.db.Where("type = ?", models.EventComment).Find(&events).Error)
	require.Len(suite.T(), events, 1)
	assert.Equal(suite.T(), suite.alice.ID, events[0].ReceiverID)
}

func (suite *MutationServiceTestSuite) TestAddCommentMissingPost() {
	comment, ok, err := suite.svc.AddComment(context.Background(), "00000000-0000-0000-0000-000000000000", suite.bob.ID, "void", nil)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Nil(suite.T(), comment)
}

func (suite *MutationServiceTestSuite) TestReplyNestingFlattens() {
	post := suite.mustCreatePost(suite.alice, "thread root")

	top, ok, err := suite.svc.AddComment(context.Background(), post.ID, suite.bob.ID, "top level", nil)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)

	reply, ok, err := suite.svc.AddComment(context.Background(), post.ID, suite.alice.ID, "a reply", &top.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	require.NotNil(suite.T(), reply.ParentID)
	assert.Equal(suite.T(), top.ID, *reply.ParentID)

	// Replying to a reply attaches to the top-level comment instead.
	deep, ok, err := suite.svc.AddComment(context.Background(), post.ID, suite.bob.ID, "reply to a reply", &reply.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	require.NotNil(suite.T(), deep.ParentID)
	assert.Equal(suite.T(), top.ID, *deep.ParentID)

	var topReloaded models.Comment
	require.NoError(suite.T(), suite.db.First(&topReloaded, "id = ?", top.ID).Error)
	assert.Equal(suite.T(), 2, topReloaded.CommentCount)
	assert.Equal(suite.T(), 3, suite.reloadPost(post.ID).CommentCount)
}

func (suite *MutationServiceTestSuite) TestDeletePostCascades() {
	post := suite.mustCreatePost(suite.alice, "doomed")

	comment, ok, err := suite.svc.AddComment(context.Background(), post.ID, suite.bob.ID, "soon gone", nil)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)

	_, err = suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	_, err = suite.svc.Like(context.Background(), comment.ID, models.TargetComment, suite.alice.ID)
	require.NoError(suite.T(), err)

	deleted, err := suite.svc.DeletePost(context.Background(), post.ID, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), deleted)

	var likeCount, commentCount, eventCount int64
	suite.db.Model(&models.Like{}).Count(&likeCount)
	suite.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount)
	suite.db.Model(&models.Event{}).Where("subject_id IN ?", []string{post.ID, comment.ID}).Count(&eventCount)
	assert.Equal(suite.T(), int64(0), likeCount)
	assert.Equal(suite.T(), int64(0), commentCount)
	assert.Equal(suite.T(), int64(0), eventCount)

	assert.Equal(suite.T(), 0, suite.reloadUser(suite.alice.ID).PostCount)

	// Liking the deleted post resolves to not-applicable, not an error.
	ok, err = suite.svc.Like(context.Background(), post.ID, models.TargetPost, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *MutationServiceTestSuite) TestDeletePostNotOwner() {
	post := suite.mustCreatePost(suite.alice, "protected")

	deleted, err := suite.svc.DeletePost(context.Background(), post.ID, suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), deleted)
	assert.Equal(suite.T(), 1, suite.reloadUser(suite.alice.ID).PostCount)
}

func (suite *MutationServiceTestSuite) TestFollow() {
	ok, err := suite.svc.Follow(context.Background(), suite.bob.ID, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	assert.Equal(suite.T(), 1, suite.reloadUser(suite.bob.ID).FollowingCount)
	assert.Equal(suite.T(), 1, suite.reloadUser(suite.alice.ID).FollowerCount)

	var events []models.Event
	require.NoError(suite.T(), suite.db.Where("type = ?", models.EventFollow).Find(&events).Error)
	require.Len(suite.T(), events, 1)
	assert.Equal(suite.T(), suite.alice.ID, events[0].ReceiverID)
	assert.Equal(suite.T(), suite.bob.Username, events[0].Details["username"])
}

func (suite *MutationServiceTestSuite) TestDuplicateFollowLeavesCountersAlone() {
	_, err := suite.svc.Follow(context.Background(), suite.bob.ID, suite.alice.ID)
	require.NoError(suite.T(), err)

	ok, err := suite.svc.Follow(context.Background(), suite.bob.ID, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)

	assert.Equal(suite.T(), 1, suite.reloadUser(suite.bob.ID).FollowingCount)
	assert.Equal(suite.T(), 1, suite.reloadUser(suite.alice.ID).FollowerCount)
}

func (suite *MutationServiceTestSuite) TestSelfFollowRejected() {
	ok, err := suite.svc.Follow(context.Background(), suite.alice.ID, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), 0, suite.reloadUser(suite.alice.ID).FollowingCount)
}

func (suite *MutationServiceTestSuite) TestUnfollow() {
	_, err := suite.svc.Follow(context.Background(), suite.bob.ID, suite.alice.ID)
	require.NoError(suite.T(), err)

	ok, err := suite.svc.Unfollow(context.Background(), suite.bob.ID, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	assert.Equal(suite.T(), 0, suite.reloadUser(suite.bob.ID).FollowingCount)
	assert.Equal(suite.T(), 0, suite.reloadUser(suite.alice.ID).FollowerCount)

	var eventCount int64
	suite.db.Model(&models.Event{}).Where("type = ?", models.EventFollow).Count(&eventCount)
	assert.Equal(suite.T(), int64(0), eventCount)

	ok, err = suite.svc.Unfollow(context.Background(), suite.bob.ID, suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), 0, suite.reloadUser(suite.alice.ID).FollowerCount)
}

func TestMutationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MutationServiceTestSuite))
}
