package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/feed"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/mutation"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// HandlerTestSuite drives the HTTP surface end to end: router, handlers,
// services, and a real database.
type HandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	alice    *models.User
	bob      *models.User
}

func (suite *HandlerTestSuite) SetupSuite() {
	path := filepath.Join(suite.T().TempDir(), "handlers_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), database.MigrateDB(db))

	suite.db = db
	database.DB = db

	gin.SetMode(gin.TestMode)
}

func (suite *HandlerTestSuite) SetupTest() {
	for _, table := range []string{"events", "likes", "follows", "comments", "posts", "users"} {
		require.NoError(suite.T(), suite.db.Exec("DELETE FROM "+table).Error)
	}

	store := cache.NewMemoryCache()
	feedCache := cache.NewFeedCache(store)
	mutations := mutation.NewService(suite.db, feedCache, nil)
	feeds := feed.NewAssembler(suite.db, feedCache)
	suite.handlers = NewHandlers(mutations, feeds, store, nil)

	suite.router = gin.New()
	suite.setupRoutes()

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

func (suite *HandlerTestSuite) setupRoutes() {
	// Stand-in for the identity middleware: trust the header outright.
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}

	api := suite.router.Group("/api/v1")
	api.Use(authMiddleware)

	api.POST("/posts", suite.handlers.CreatePost)
	api.GET("/posts/:id", suite.handlers.GetPost)
	api.PUT("/posts/:id", suite.handlers.UpdatePost)
	api.DELETE("/posts/:id", suite.handlers.DeletePost)
	api.POST("/posts/:id/comments", suite.handlers.CreateComment)
	api.GET("/posts/:id/comments", suite.handlers.GetComments)
	api.POST("/likes", suite.handlers.LikeContent)
	api.DELETE("/likes", suite.handlers.UnlikeContent)
	api.POST("/users/:id/follow", suite.handlers.FollowUser)
	api.DELETE("/users/:id/follow", suite.handlers.UnfollowUser)
	api.GET("/users/:id/posts", suite.handlers.UserPosts)
	api.GET("/feed/home", suite.handlers.HomeFeed)
	api.GET("/feed/trending", suite.handlers.Trending)
	api.GET("/events", suite.handlers.GetEvents)
}

func (suite *HandlerTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) createPostViaAPI(userID, body string) string {
	w := suite.request(http.MethodPost, "/api/v1/posts", userID, gin.H{"body": body})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Post.ID
}

func (suite *HandlerTestSuite) TestCreatePost() {
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.alice.ID, gin.H{
		"body":       "hello world",
		"media_urls": []string{"https://cdn.example.com/pic.jpg"},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(suite.T(), "hello world", resp.Post.Body)
	assert.Equal(suite.T(), suite.alice.ID, resp.Post.UserID)
}

func (suite *HandlerTestSuite) TestCreatePostValidation() {
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.alice.ID, gin.H{})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/posts", suite.alice.ID, gin.H{
		"body": strings.Repeat("a", 281),
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlerTestSuite) TestCreatePostRequiresAuth() {
	w := suite.request(http.MethodPost, "/api/v1/posts", "", gin.H{"body": "anon"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestUpdatePostNotOwner() {
	postID := suite.createPostViaAPI(suite.alice.ID, "mine")

	w := suite.request(http.MethodPut, "/api/v1/posts/"+postID, suite.bob.ID, gin.H{"body": "stolen"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestDeletePost() {
	postID := suite.createPostViaAPI(suite.alice.ID, "temporary")

	w := suite.request(http.MethodDelete, "/api/v1/posts/"+postID, suite.alice.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+postID, suite.alice.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestLikeFlow() {
	postID := suite.createPostViaAPI(suite.alice.ID, "likeable")

	w := suite.request(http.MethodPost, "/api/v1/likes", suite.bob.ID, gin.H{
		"target_type": "post",
		"target_id":   postID,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"liked":true`)

	// Second like reports false but stays 200.
	w = suite.request(http.MethodPost, "/api/v1/likes", suite.bob.ID, gin.H{
		"target_type": "post",
		"target_id":   postID,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"liked":false`)

	w = suite.request(http.MethodDelete, "/api/v1/likes", suite.bob.ID, gin.H{
		"target_type": "post",
		"target_id":   postID,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"unliked":true`)
}

func (suite *HandlerTestSuite) TestLikeRejectsUnknownTargetType() {
	w := suite.request(http.MethodPost, "/api/v1/likes", suite.bob.ID, gin.H{
		"target_type": "story",
		"target_id":   "whatever",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCommentFlow() {
	postID := suite.createPostViaAPI(suite.alice.ID, "discuss this")

	w := suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", suite.bob.ID, gin.H{
		"body": "great point",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+postID+"/comments", suite.alice.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "great point")
}

func (suite *HandlerTestSuite) TestCommentOnMissingPost() {
	w := suite.request(http.MethodPost, "/api/v1/posts/00000000-0000-0000-0000-000000000000/comments", suite.bob.ID, gin.H{
		"body": "into the void",
	})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestFollowFlow() {
	w := suite.request(http.MethodPost, "/api/v1/users/"+suite.alice.ID+"/follow", suite.bob.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"following":true`)

	w = suite.request(http.MethodDelete, "/api/v1/users/"+suite.alice.ID+"/follow", suite.bob.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"unfollowed":true`)
}

func (suite *HandlerTestSuite) TestHomeFeed() {
	suite.createPostViaAPI(suite.alice.ID, "something public")

	w := suite.request(http.MethodGet, "/api/v1/feed/home", suite.bob.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Items []models.ContentSummary `json:"items"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(suite.T(), resp.Items)
}

func (suite *HandlerTestSuite) TestHomeFeedInvalidCursor() {
	w := suite.request(http.MethodGet, "/api/v1/feed/home?cursor=%21%21%21", suite.bob.ID, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUserPostsPagination() {
	for i := 0; i < 3; i++ {
		suite.createPostViaAPI(suite.alice.ID, fmt.Sprintf("post %d", i))
	}

	w := suite.request(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/posts?limit=2", suite.bob.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Items      []models.ContentSummary `json:"items"`
		NextCursor string                  `json:"next_cursor"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(suite.T(), resp.Items, 2)
	assert.NotEmpty(suite.T(), resp.NextCursor)
}

func (suite *HandlerTestSuite) TestEventsList() {
	postID := suite.createPostViaAPI(suite.alice.ID, "like for a notification")
	w := suite.request(http.MethodPost, "/api/v1/likes", suite.bob.ID, gin.H{
		"target_type": "post",
		"target_id":   postID,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/events", suite.alice.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Events, 1)
	assert.Equal(suite.T(), models.EventLike, resp.Events[0].Type)
	assert.Equal(suite.T(), suite.bob.ID, resp.Events[0].SenderID)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
