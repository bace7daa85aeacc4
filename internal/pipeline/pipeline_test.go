package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/pkg/config"
	"github.com/segmend/rfm/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

var asOf = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

// order emits a transaction placed daysAgo days before the reference instant
func order(customer string, seq int, amount float64, daysAgo int) contracts.Transaction {
	return contracts.Transaction{
		CustomerID:   customer,
		OrderID:      fmt.Sprintf("%s-%d", customer, seq),
		Amount:       amount,
		PurchaseDate: asOf.AddDate(0, 0, -daysAgo),
	}
}

// sampleTransactions is a 31-row dataset with enough spread for every
// quantile cut. C1 is the reference high-value customer (3 orders, $300
// total, last purchase 2 days ago); C2 the reference low-value one (1 order,
// $10, 400 days ago).
func sampleTransactions() []contracts.Transaction {
	var rows []contracts.Transaction
	add := func(customer string, amount float64, daysAgo ...int) {
		for i, d := range daysAgo {
			rows = append(rows, order(customer, i+1, amount, d))
		}
	}

	add("C1", 100, 2, 5, 9)
	add("C2", 10, 400)
	add("C3", 20, 350)
	add("C4", 30, 300)
	add("C5", 40, 250)
	add("C6", 25, 200, 210)
	add("C7", 35, 150, 160)
	add("C8", 45, 100, 110)
	add("C9", 40, 60, 70, 80)
	add("C10", 45, 12, 18, 22, 28)
	add("C11", 48, 30, 40, 50, 33, 45)
	add("C12", 35, 90, 95, 85, 75, 65, 55)
	return rows
}

func TestPipeline_Run_Scenario(t *testing.T) {
	result, err := New(testLogger()).Run(sampleTransactions(), asOf)
	require.NoError(t, err)
	require.Len(t, result.Rows, 31)

	byCustomer := make(map[string][]contracts.ScoredRow)
	for _, r := range result.Rows {
		byCustomer[r.CustomerID] = append(byCustomer[r.CustomerID], r)
	}

	// C1: top recency/monetary quintiles -> Champions on every row
	for _, r := range byCustomer["C1"] {
		assert.GreaterOrEqual(t, r.RFMScore, 9)
		assert.Equal(t, contracts.SegmentChampions, r.CustomerSegment)
		assert.Equal(t, contracts.ValueHigh, r.ValueSegment)
		assert.Equal(t, 3, r.Frequency)
		assert.InDelta(t, 300.0, r.MonetaryValue, 1e-9)
		assert.Equal(t, 5, r.RecencyScore)
		assert.Equal(t, 5, r.MonetaryScore)
	}

	// C2: bottom bin on all three measures -> Lost
	c2 := byCustomer["C2"][0]
	assert.Equal(t, 3, c2.RFMScore)
	assert.Equal(t, contracts.SegmentLost, c2.CustomerSegment)
	assert.Equal(t, contracts.ValueLow, c2.ValueSegment)
}

func TestPipeline_Run_BroadcastInvariant(t *testing.T) {
	result, err := New(testLogger()).Run(sampleTransactions(), asOf)
	require.NoError(t, err)

	first := make(map[string]contracts.ScoredRow)
	for _, r := range result.Rows {
		prev, seen := first[r.CustomerID]
		if !seen {
			first[r.CustomerID] = r
			continue
		}
		// Customer-level properties are identical on every row of a customer
		assert.Equal(t, prev.Frequency, r.Frequency)
		assert.Equal(t, prev.MonetaryValue, r.MonetaryValue)
		assert.Equal(t, prev.FrequencyScore, r.FrequencyScore)
		assert.Equal(t, prev.MonetaryScore, r.MonetaryScore)
	}
}

func TestPipeline_Run_ScoreBounds(t *testing.T) {
	result, err := New(testLogger()).Run(sampleTransactions(), asOf)
	require.NoError(t, err)

	for _, r := range result.Rows {
		assert.GreaterOrEqual(t, r.RFMScore, 3)
		assert.LessOrEqual(t, r.RFMScore, 15)
		assert.Equal(t, r.RecencyScore+r.FrequencyScore+r.MonetaryScore, r.RFMScore)
		assert.NotEmpty(t, r.CustomerSegment)
		assert.NotEmpty(t, r.ValueSegment)
	}
}

func TestPipeline_Run_Idempotent(t *testing.T) {
	p := New(testLogger())

	first, err := p.Run(sampleTransactions(), asOf)
	require.NoError(t, err)
	second, err := p.Run(sampleTransactions(), asOf)
	require.NoError(t, err)

	// Same input, same reference instant: identical output
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Report.ValueSegmentCounts, second.Report.ValueSegmentCounts)
	assert.Equal(t, first.Report.SegmentMeans, second.Report.SegmentMeans)
}

func TestPipeline_Run_Report(t *testing.T) {
	result, err := New(testLogger()).Run(sampleTransactions(), asOf)
	require.NoError(t, err)
	require.NotNil(t, result.Report)

	assert.Equal(t, 31, result.Report.TotalRows)
	require.NotNil(t, result.Report.Champions)
	assert.Equal(t, 18, result.Report.Champions.Rows)

	total := 0
	for _, c := range result.Report.ValueSegmentCounts {
		total += c.Count
	}
	assert.Equal(t, 31, total)
}

func TestPipeline_Run_DegenerateMonetary(t *testing.T) {
	// Per-order amounts chosen so every customer's total is exactly 120:
	// recency and frequency vary, but the monetary cut cannot form 5 bins.
	var rows []contracts.Transaction
	add := func(customer string, amount float64, daysAgo ...int) {
		for i, d := range daysAgo {
			rows = append(rows, order(customer, i+1, amount, d))
		}
	}
	add("C1", 40, 2, 5, 9)
	add("C2", 120, 400)
	add("C3", 120, 350)
	add("C4", 120, 300)
	add("C5", 120, 250)
	add("C6", 60, 200, 210)
	add("C7", 60, 150, 160)
	add("C8", 60, 100, 110)
	add("C9", 40, 60, 70, 80)
	add("C10", 30, 12, 18, 22, 28)
	add("C11", 24, 30, 40, 50, 33, 45)
	add("C12", 20, 90, 95, 85, 75, 65, 55)

	_, err := New(testLogger()).Run(rows, asOf)
	require.Error(t, err)

	var insufficient *contracts.InsufficientDistinctValuesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "MonetaryValue", insufficient.Measure)
	assert.Contains(t, err.Error(), "score measures")
}

func TestPipeline_Run_MalformedInput(t *testing.T) {
	rows := sampleTransactions()
	rows[3].CustomerID = ""

	_, err := New(testLogger()).Run(rows, asOf)
	require.Error(t, err)

	var malformed *contracts.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, err.Error(), "derive measures")
}
