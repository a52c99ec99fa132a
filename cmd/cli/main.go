package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/murmurhq/murmur/backend/internal/database"
	"github.com/murmurhq/murmur/backend/internal/logger"
	"github.com/spf13/cobra"
)

var sqlitePath string

var rootCmd = &cobra.Command{
	Use:   "murmur",
	Short: "Murmur admin CLI - operate on the Murmur backend directly",
	Long: `Murmur admin CLI runs maintenance operations against the backend's
data stores: migrations, trending recomputation, and search reindexing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if sqlitePath != "" {
			return database.InitializeSQLite(sqlitePath)
		}
		return database.Initialize()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
		logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "Use a local SQLite database file instead of Postgres")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
