package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/segmend/rfm/internal/api"
	"github.com/segmend/rfm/internal/api/handlers"
	"github.com/segmend/rfm/internal/ingest"
	"github.com/segmend/rfm/internal/pipeline"
	"github.com/segmend/rfm/pkg/config"
	"github.com/segmend/rfm/pkg/database"
	"github.com/segmend/rfm/pkg/logger"
	"github.com/segmend/rfm/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the report API server",
	Long: `Starts the HTTP read-side for segmentation reports.

Endpoints:
  GET  /health            - Health check
  POST /api/rfm/analyze   - Run segmentation, return and cache the report
  GET  /api/rfm/report    - Last computed report (from cache)

Example:
  go run ./cmd/rfm api
  go run ./cmd/rfm api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFM Report API ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Postgres is optional: without DATABASE_URL only CSV analysis works
	var repo *ingest.Repository
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		repo = ingest.NewRepository(db.Pool)
		log.Info("Connected to database")
	} else {
		log.Warn("DATABASE_URL not set, db source disabled")
	}

	// 4. Redis report cache (no-op when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 5. Wire handler and router
	rfmHandler := handlers.NewRFMHandler(
		repo,
		ingest.NewCSVLoader(log),
		pipeline.New(log),
		redis.NewCache(redisClient, "rfm"),
		cfg.Report.CacheTTL,
		log,
	)
	router := api.NewRouter(rfmHandler, log)
	server := api.New(cfg, log, router)

	// 6. Run until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
