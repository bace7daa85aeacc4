package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// Report bundles the read-only aggregate views produced from a scored table.
// Consumers (CLI tables, HTTP API, chart frontends) only ever read it.
type Report struct {
	AsOf      time.Time `json:"as_of"`
	TotalRows int       `json:"total_rows"`

	ValueSegmentCounts []SegmentCount   `json:"value_segment_counts"`
	SegmentBreakdown   []BreakdownCount `json:"segment_breakdown"`
	Champions          *ChampionsView   `json:"champions"`
	SegmentMeans       []SegmentMeans   `json:"segment_means"`
}

// SegmentCount is a row count for one value segment
type SegmentCount struct {
	Segment ValueSegment `json:"segment"`
	Count   int          `json:"count"`
}

// BreakdownCount is a row count for one (value segment, customer segment) pair
type BreakdownCount struct {
	ValueSegment    ValueSegment    `json:"value_segment"`
	CustomerSegment CustomerSegment `json:"customer_segment"`
	Count           int             `json:"count"`
}

// ScoreSummary describes the distribution of one ordinal score
// within a sub-population (the box-plot view).
type ScoreSummary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// ChampionsView holds the Champions sub-population statistics
type ChampionsView struct {
	Rows        int               `json:"rows"`
	Recency     ScoreSummary      `json:"recency"`
	Frequency   ScoreSummary      `json:"frequency"`
	Monetary    ScoreSummary      `json:"monetary"`
	Correlation CorrelationMatrix `json:"correlation"`
}

// SegmentMeans holds mean R/F/M scores for one customer segment
type SegmentMeans struct {
	Segment       CustomerSegment `json:"segment"`
	RecencyMean   float64         `json:"recency_mean"`
	FrequencyMean float64         `json:"frequency_mean"`
	MonetaryMean  float64         `json:"monetary_mean"`
}

// CorrelationMatrix is a symmetric pairwise Pearson correlation matrix.
// Values[i][j] correlates Labels[i] with Labels[j]; a coefficient over a
// zero-variance column is NaN in memory and null on the wire.
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// MarshalJSON encodes NaN cells as null, since JSON has no NaN literal
func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				v := row[j]
				values[i][j] = &v
			}
		}
	}

	return json.Marshal(struct {
		Labels []string     `json:"labels"`
		Values [][]*float64 `json:"values"`
	}{Labels: m.Labels, Values: values})
}

// UnmarshalJSON decodes null cells back to NaN
func (m *CorrelationMatrix) UnmarshalJSON(data []byte) error {
	var wire struct {
		Labels []string     `json:"labels"`
		Values [][]*float64 `json:"values"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	m.Labels = wire.Labels
	m.Values = make([][]float64, len(wire.Values))
	for i, row := range wire.Values {
		m.Values[i] = make([]float64, len(row))
		for j, cell := range row {
			if cell == nil {
				m.Values[i][j] = math.NaN()
			} else {
				m.Values[i][j] = *cell
			}
		}
	}
	return nil
}
