package commands

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/internal/ingest"
	"github.com/segmend/rfm/internal/pipeline"
	"github.com/segmend/rfm/pkg/config"
	"github.com/segmend/rfm/pkg/database"
	"github.com/segmend/rfm/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the RFM segmentation pipeline",
	Long: `Runs the full segmentation over a transaction dataset.

The pipeline:
- derives Recency/Frequency/Monetary measures per row
- assigns 1-5 quantile scores per measure
- classifies the composite score into value tiers and customer segments
- prints the aggregate report

Flags:
  --csv     read transactions from a CSV file
  --db      read transactions from Postgres (DATABASE_URL)
  --from    db window start (2006-01-02)
  --to      db window end, exclusive (2006-01-02)
  --as-of   reference instant for recency (default: now, UTC)

Example:
  go run ./cmd/rfm analyze --csv transactions.csv
  go run ./cmd/rfm analyze --csv transactions.csv --as-of 2024-06-15
  go run ./cmd/rfm analyze --db --from 2024-01-01 --to 2024-07-01`,
	RunE: runAnalyze,
}

var (
	analyzeCSV  string
	analyzeDB   bool
	analyzeFrom string
	analyzeTo   string
	analyzeAsOf string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "CSV file with transactions")
	analyzeCmd.Flags().BoolVar(&analyzeDB, "db", false, "load transactions from Postgres")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "window start (2006-01-02)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "window end, exclusive (2006-01-02)")
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "reference instant (2006-01-02, default now UTC)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFM Segmentation ===")

	if (analyzeCSV == "") == !analyzeDB {
		return fmt.Errorf("exactly one of --csv or --db is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	// Reference instant: explicit beats wall clock for reproducible runs
	asOf := time.Now().UTC()
	if analyzeAsOf != "" {
		asOf, err = time.Parse("2006-01-02", analyzeAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
	}

	rows, err := loadTransactions(cfg, log)
	if err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Loaded %d transactions", len(rows)))

	result, err := pipeline.New(log).Run(rows, asOf)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	printReport(result.Report)
	return nil
}

func loadTransactions(cfg *config.Config, log *logger.Logger) ([]contracts.Transaction, error) {
	if analyzeCSV != "" {
		return ingest.NewCSVLoader(log).LoadFile(analyzeCSV)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	from, to, err := parseWindow(analyzeFrom, analyzeTo)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return ingest.NewRepository(db.Pool).ListTransactions(ctx, from, to)
}

func parseWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return from, to, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return from, to, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return from, to, nil
}

func printReport(rep *contracts.Report) {
	PrintHeader(fmt.Sprintf("Segmentation Report (%d rows, as of %s)",
		rep.TotalRows, rep.AsOf.Format("2006-01-02")))

	fmt.Println("\nValue Segment Distribution")
	widths := []int{22, 8}
	PrintTableHeader([]string{"Segment", "Count"}, widths)
	for _, c := range rep.ValueSegmentCounts {
		PrintTableRow([]string{string(c.Segment), fmt.Sprintf("%d", c.Count)}, widths)
	}

	fmt.Println("\nCustomer Segments by Value Tier")
	widths = []int{12, 22, 8}
	PrintTableHeader([]string{"Tier", "Segment", "Count"}, widths)
	for _, b := range rep.SegmentBreakdown {
		PrintTableRow([]string{
			string(b.ValueSegment),
			string(b.CustomerSegment),
			fmt.Sprintf("%d", b.Count),
		}, widths)
	}

	fmt.Println("\nSegment Mean Scores")
	widths = []int{22, 9, 11, 10}
	PrintTableHeader([]string{"Segment", "Recency", "Frequency", "Monetary"}, widths)
	for _, m := range rep.SegmentMeans {
		PrintTableRow([]string{
			string(m.Segment),
			fmt.Sprintf("%.2f", m.RecencyMean),
			fmt.Sprintf("%.2f", m.FrequencyMean),
			fmt.Sprintf("%.2f", m.MonetaryMean),
		}, widths)
	}

	printChampions(rep.Champions)
}

func printChampions(view *contracts.ChampionsView) {
	fmt.Printf("\nChampions (%d rows)\n", view.Rows)

	widths := []int{10, 6, 6, 8, 6, 6, 6}
	PrintTableHeader([]string{"Score", "Min", "Q1", "Median", "Q3", "Max", "Mean"}, widths)
	for _, s := range []struct {
		name    string
		summary contracts.ScoreSummary
	}{
		{"Recency", view.Recency},
		{"Frequency", view.Frequency},
		{"Monetary", view.Monetary},
	} {
		PrintTableRow([]string{
			s.name,
			fmt.Sprintf("%.1f", s.summary.Min),
			fmt.Sprintf("%.2f", s.summary.Q1),
			fmt.Sprintf("%.2f", s.summary.Median),
			fmt.Sprintf("%.2f", s.summary.Q3),
			fmt.Sprintf("%.1f", s.summary.Max),
			fmt.Sprintf("%.2f", s.summary.Mean),
		}, widths)
	}

	fmt.Println("\nChampions Score Correlation")
	widths = []int{16, 9, 9, 9}
	PrintTableHeader([]string{"", "Recency", "Frequency", "Monetary"}, widths)
	for i, label := range view.Correlation.Labels {
		row := []string{label}
		for j := range view.Correlation.Labels {
			row = append(row, formatCoefficient(view.Correlation.Values[i][j]))
		}
		PrintTableRow(row, widths)
	}
	PrintSeparator()
}

func formatCoefficient(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.3f", v)
}
