package main

import (
	"context"
	"fmt"
	"os"

	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/models"
	"github.com/murmurhq/murmur/backend/internal/ranking"
	"github.com/murmurhq/murmur/backend/internal/search"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Recompute the trending ranking immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := redisFromEnv()
		if err != nil {
			return fmt.Errorf("redis required for ranking: %w", err)
		}
		defer store.Close()

		ranker := ranking.NewService(database.DB, cache.NewFeedCache(store), ranking.DefaultInterval)
		if err := ranker.RunOnce(context.Background()); err != nil {
			return fmt.Errorf("ranking run failed: %w", err)
		}
		fmt.Println("trending ranking recomputed")
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the posts table",
	RunE: func(cmd *cobra.Command, args []string) error {
		es, err := search.NewClient()
		if err != nil {
			return fmt.Errorf("elasticsearch required for reindexing: %w", err)
		}

		ctx := context.Background()
		if err := es.InitializeIndices(ctx); err != nil {
			return fmt.Errorf("failed to initialize indices: %w", err)
		}

		var indexed int
		var batch []models.Post
		err = database.DB.Preload("User").FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := es.IndexPost(ctx, &batch[i]); err != nil {
					return fmt.Errorf("failed to index post %s: %w", batch[i].ID, err)
				}
				indexed++
			}
			return nil
		}).Error
		if err != nil {
			return err
		}

		fmt.Printf("indexed %d posts\n", indexed)
		return nil
	},
}

func redisFromEnv() (*cache.RedisCache, error) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	return cache.NewRedisCache(host, port, os.Getenv("REDIS_PASSWORD"))
}
