package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/segmend/rfm/internal/ingest"
	"github.com/segmend/rfm/pkg/config"
	"github.com/segmend/rfm/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Tests the transaction database connection and shows pool statistics.

This command:
- loads DATABASE_URL from config
- creates the connection pool
- pings the database
- counts available transactions

Example:
  go run ./cmd/rfm test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFM Database Connection Test ===")

	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	PrintSuccess("Database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("❌ Failed to ping database: %w", err)
	}
	PrintSuccess("Ping successful")

	count, err := ingest.NewRepository(db.Pool).Count(ctx)
	if err != nil {
		return fmt.Errorf("❌ Failed to count transactions: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Transactions available: %d", count))

	stats := db.Stats()
	fmt.Println("\n📊 Connection Pool Statistics:")
	fmt.Printf("   Total Conns: %d\n", stats.TotalConns)
	fmt.Printf("   Idle Conns: %d\n", stats.IdleConns)
	fmt.Printf("   Acquired Conns: %d\n", stats.AcquiredConns)
	fmt.Printf("   Max Conns: %d\n", stats.MaxConns)

	return nil
}

// maskPassword hides the credential part of a connection URL
func maskPassword(url string) string {
	if url == "" {
		return "(not set)"
	}

	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 {
		return url
	}

	auth := url[scheme+3 : at]
	if colon := strings.Index(auth, ":"); colon != -1 {
		auth = auth[:colon] + ":****"
	}
	return url[:scheme+3] + auth + url[at:]
}
