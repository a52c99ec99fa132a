package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/murmurhq/murmur/backend/internal/cache"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/murmurhq/murmur/backend/internal/mutation"
	"github.com/murmurhq/murmur/backend/internal/seed"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Seeding drives the real mutation service so denormalized counters and
	// events come out consistent. Cache writes land in-memory and are
	// discarded on exit; the feed layer rebuilds them lazily.
	feedCache := cache.NewFeedCache(cache.NewMemoryCache())
	mutations := mutation.NewService(database.DB, feedCache, nil)
	seeder := seed.NewSeeder(database.DB, mutations)

	ctx := context.Background()

	switch command {
	case "dev":
		logger.Log.Info("seeding development database")
		if err := seeder.SeedDev(ctx); err != nil {
			logger.Log.Fatal("seeding failed", zap.Error(err))
		}
		logger.Log.Info("development database seeded")
	case "test":
		logger.Log.Info("seeding test database")
		if err := seeder.SeedTest(ctx); err != nil {
			logger.Log.Fatal("seeding failed", zap.Error(err))
		}
		logger.Log.Info("test database seeded")
	case "clean":
		logger.Log.Info("cleaning seed data")
		if err := seeder.Clean(); err != nil {
			logger.Log.Fatal("clean failed", zap.Error(err))
		}
		logger.Log.Info("seed data cleaned")
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with minimal data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}
