package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rfm",
	Short: "RFM customer segmentation engine",
	Long: `RFM Customer Segmentation CLI

Computes Recency/Frequency/Monetary scores from transaction records,
classifies every customer row into a named business segment and produces
aggregate reports for downstream charting.

Usage:
  go run ./cmd/rfm [command]

Examples:
  go run ./cmd/rfm analyze --csv transactions.csv
  go run ./cmd/rfm analyze --db --from 2024-01-01 --to 2024-07-01
  go run ./cmd/rfm api
  go run ./cmd/rfm test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
