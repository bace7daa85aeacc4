package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/segmend/rfm/pkg/config"
	"github.com/segmend/rfm/pkg/logger"
)

// testLoggerCmd represents the test-logger command
var testLoggerCmd = &cobra.Command{
	Use:   "test-logger",
	Short: "Test structured logging",
	Long: `Exercises the structured logging setup.

This command:
- emits JSON and console formatted output
- logs structured fields
- logs error context

Example:
  go run ./cmd/rfm test-logger`,
	RunE: runTestLogger,
}

func init() {
	rootCmd.AddCommand(testLoggerCmd)
}

func runTestLogger(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFM Logger Test ===")

	fmt.Println("1. JSON Format")
	fmt.Println("--------------------------------")
	jsonLog := logger.New(&config.Config{Env: "production", LogLevel: "debug", LogFormat: "json"})
	jsonLog.Info("Segmentation run completed")
	jsonLog.WithFields(map[string]interface{}{
		"measure": "Recency",
		"bins":    5,
	}).Debug("Computed quantile bins")
	fmt.Println()

	fmt.Println("2. Console Format")
	fmt.Println("--------------------------------")
	consoleLog := logger.New(&config.Config{Env: "development", LogLevel: "debug", LogFormat: "console"})
	consoleLog.Info("Segmentation run completed")
	consoleLog.WithField("rows", 1234).Debug("Loaded transactions")
	fmt.Println()

	fmt.Println("3. Error Context")
	fmt.Println("--------------------------------")
	consoleLog.WithError(errors.New("measure MonetaryValue: quantile edges are not distinct")).
		Error("Segmentation run failed")

	PrintSuccess("Logger test complete")
	return nil
}
