package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/feed"
	"github.com/murmurhq/murmur/backend/internal/handlers"
	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/murmurhq/murmur/backend/internal/metrics"
	"github.com/murmurhq/murmur/backend/internal/middleware"
	"github.com/murmurhq/murmur/backend/internal/mutation"
	"github.com/murmurhq/murmur/backend/internal/ranking"
	"github.com/murmurhq/murmur/backend/internal/search"
	"github.com/murmurhq/murmur/backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// .env is a dev convenience; deployed environments set real env vars.
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	logger.Log.Info("murmur backend starting")

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.ConfigFromEnv())
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	}
	defer telemetry.Shutdown(tp)

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis is preferred; the in-process cache keeps a dev box working
	// without one, at the cost of cold feeds on restart.
	var store cache.Cache
	redisCache, err := cache.NewRedisCache(
		getEnv("REDIS_HOST", "localhost"),
		getEnv("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
		store = cache.NewMemoryCache()
	} else {
		store = redisCache
	}
	defer store.Close()

	feedCache := cache.NewFeedCache(store)

	// Search is optional; mutations log and continue when indexing fails.
	var indexer search.Indexer
	var esClient *search.Client
	if os.Getenv("ELASTICSEARCH_URL") != "" {
		esClient, err = search.NewClient()
		if err != nil {
			logger.Log.Warn("elasticsearch unavailable, search sync disabled", zap.Error(err))
		} else {
			if err := esClient.InitializeIndices(context.Background()); err != nil {
				logger.Log.Warn("failed to initialize search indices", zap.Error(err))
			}
			indexer = esClient
		}
	}

	mutations := mutation.NewService(database.DB, feedCache, indexer)
	feeds := feed.NewAssembler(database.DB, feedCache)

	ranker := ranking.NewService(database.DB, feedCache, rankingInterval())
	ranker.Start()
	defer ranker.Stop()

	h := handlers.NewHandlers(mutations, feeds, store, esClient)

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if tp != nil {
		r.Use(otelgin.Middleware("murmur-backend"))
	}
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-User-ID", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.IdentityMiddleware())
	{
		posts := api.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetComments)
		}

		likes := api.Group("/likes")
		{
			likes.POST("", h.LikeContent)
			likes.DELETE("", h.UnlikeContent)
		}

		users := api.Group("/users")
		{
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
			users.GET("/:id/posts", h.UserPosts)
		}

		feedGroup := api.Group("/feed")
		{
			feedGroup.GET("/home", h.HomeFeed)
			feedGroup.GET("/trending", h.Trending)
		}

		api.GET("/events", h.GetEvents)
	}

	port := getEnv("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}

	logger.Log.Info("server exited")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func rankingInterval() time.Duration {
	if raw := os.Getenv("RANKING_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return ranking.DefaultInterval
}

func allowedOrigins() []string {
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		return []string{raw}
	}
	return []string{"*"}
}
