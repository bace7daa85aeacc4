package report

import (
	"encoding/json"
	"math"
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

func row(r, f, m int, vs contracts.ValueSegment, cs contracts.CustomerSegment) contracts.ScoredRow {
	return contracts.ScoredRow{
		RecencyScore:    r,
		FrequencyScore:  f,
		MonetaryScore:   m,
		RFMScore:        r + f + m,
		ValueSegment:    vs,
		CustomerSegment: cs,
	}
}

func sampleRows() []contracts.ScoredRow {
	return []contracts.ScoredRow{
		row(5, 5, 4, contracts.ValueHigh, contracts.SegmentChampions),
		row(4, 3, 5, contracts.ValueHigh, contracts.SegmentChampions),
		row(3, 4, 3, contracts.ValueMid, contracts.SegmentChampions),
		row(3, 2, 2, contracts.ValueMid, contracts.SegmentPotentialLoyalists),
		row(2, 2, 1, contracts.ValueLow, contracts.SegmentAtRisk),
		row(1, 1, 2, contracts.ValueLow, contracts.SegmentCantLose),
		row(1, 1, 1, contracts.ValueLow, contracts.SegmentLost),
	}
}

func TestReporter_ValueSegmentDistribution(t *testing.T) {
	dist := NewReporter(testLogger()).ValueSegmentDistribution(sampleRows())
	require.Len(t, dist, 3)

	assert.Equal(t, contracts.ValueLow, dist[0].Segment)
	assert.Equal(t, 3, dist[0].Count)
	assert.Equal(t, contracts.ValueMid, dist[1].Segment)
	assert.Equal(t, 2, dist[1].Count)
	assert.Equal(t, contracts.ValueHigh, dist[2].Segment)
	assert.Equal(t, 2, dist[2].Count)
}

func TestReporter_SegmentBreakdown(t *testing.T) {
	breakdown := NewReporter(testLogger()).SegmentBreakdown(sampleRows())

	total := 0
	for _, b := range breakdown {
		assert.Greater(t, b.Count, 0, "zero pairs must be omitted")
		total += b.Count
	}
	assert.Equal(t, len(sampleRows()), total)

	// Champions split across two value tiers
	var championsPairs int
	for _, b := range breakdown {
		if b.CustomerSegment == contracts.SegmentChampions {
			championsPairs++
		}
	}
	assert.Equal(t, 2, championsPairs)
}

func TestReporter_Champions(t *testing.T) {
	view, err := NewReporter(testLogger()).Champions(sampleRows())
	require.NoError(t, err)

	assert.Equal(t, 3, view.Rows)
	assert.InDelta(t, 4.0, view.Recency.Mean, 1e-9)
	assert.InDelta(t, 3.0, view.Recency.Min, 1e-9)
	assert.InDelta(t, 5.0, view.Recency.Max, 1e-9)
	assert.InDelta(t, 4.0, view.Recency.Median, 1e-9)

	require.Equal(t, []string{"RecencyScore", "FrequencyScore", "MonetaryScore"}, view.Correlation.Labels)
	require.Len(t, view.Correlation.Values, 3)

	// Diagonal is 1, matrix is symmetric
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, view.Correlation.Values[i][i], 1e-9)
		for j := 0; j < 3; j++ {
			assert.InDelta(t, view.Correlation.Values[j][i], view.Correlation.Values[i][j], 1e-9)
			assert.LessOrEqual(t, math.Abs(view.Correlation.Values[i][j]), 1.0+1e-9)
		}
	}
}

func TestReporter_Champions_EmptySubpopulation(t *testing.T) {
	tests := []struct {
		name string
		rows []contracts.ScoredRow
		want int
	}{
		{
			name: "no champions",
			rows: []contracts.ScoredRow{
				row(2, 2, 1, contracts.ValueLow, contracts.SegmentLost),
				row(3, 2, 2, contracts.ValueMid, contracts.SegmentAtRisk),
			},
			want: 0,
		},
		{
			name: "single champion",
			rows: []contracts.ScoredRow{
				row(5, 5, 5, contracts.ValueHigh, contracts.SegmentChampions),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReporter(testLogger()).Champions(tt.rows)
			require.Error(t, err)

			var empty *contracts.EmptySubpopulationError
			require.ErrorAs(t, err, &empty)
			assert.Equal(t, "Champions", empty.Segment)
			assert.Equal(t, tt.want, empty.Rows)
		})
	}
}

func TestReporter_Champions_ZeroVarianceIsNaN(t *testing.T) {
	rows := []contracts.ScoredRow{
		row(5, 5, 4, contracts.ValueHigh, contracts.SegmentChampions),
		row(5, 4, 5, contracts.ValueHigh, contracts.SegmentChampions),
		row(5, 3, 3, contracts.ValueHigh, contracts.SegmentChampions),
	}

	view, err := NewReporter(testLogger()).Champions(rows)
	require.NoError(t, err)

	// RecencyScore is constant: its off-diagonal coefficients are undefined
	assert.True(t, math.IsNaN(view.Correlation.Values[0][1]))
	assert.True(t, math.IsNaN(view.Correlation.Values[1][0]))

	// NaN cells survive a JSON round trip as null
	data, err := json.Marshal(view.Correlation)
	require.NoError(t, err)
	assert.Contains(t, string(data), "null")

	var decoded contracts.CorrelationMatrix
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsNaN(decoded.Values[0][1]))
	assert.InDelta(t, view.Correlation.Values[1][2], decoded.Values[1][2], 1e-12)
}

func TestReporter_SegmentMeans(t *testing.T) {
	means := NewReporter(testLogger()).SegmentMeans(sampleRows())
	require.Len(t, means, 5)

	// Ordered best to worst
	assert.Equal(t, contracts.SegmentChampions, means[0].Segment)
	assert.Equal(t, contracts.SegmentLost, means[4].Segment)

	assert.InDelta(t, 4.0, means[0].RecencyMean, 1e-9)
	assert.InDelta(t, 4.0, means[0].FrequencyMean, 1e-9)
	assert.InDelta(t, 4.0, means[0].MonetaryMean, 1e-9)

	assert.InDelta(t, 1.0, means[4].RecencyMean, 1e-9)
}

func TestReporter_Build(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	rep, err := NewReporter(testLogger()).Build(sampleRows(), asOf)
	require.NoError(t, err)

	assert.Equal(t, asOf, rep.AsOf)
	assert.Equal(t, 7, rep.TotalRows)
	assert.NotNil(t, rep.Champions)
	assert.NotEmpty(t, rep.ValueSegmentCounts)
	assert.NotEmpty(t, rep.SegmentBreakdown)
	assert.NotEmpty(t, rep.SegmentMeans)
}

func TestReporter_Build_FailsWithoutChampions(t *testing.T) {
	rows := []contracts.ScoredRow{
		row(1, 1, 1, contracts.ValueLow, contracts.SegmentLost),
		row(2, 1, 1, contracts.ValueLow, contracts.SegmentLost),
	}

	_, err := NewReporter(testLogger()).Build(rows, time.Now())
	var empty *contracts.EmptySubpopulationError
	require.ErrorAs(t, err, &empty)
}
