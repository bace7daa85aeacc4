package scoring

import (
	"fmt"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/pkg/logger"
)

// scoreBins is the number of equal-population bins per measure
const scoreBins = 5

// Scorer converts raw RFM measures into ordinal 1-5 scores via quantile
// binning over each measure's full distribution.
type Scorer struct {
	logger *logger.Logger
}

// NewScorer creates a new quantile scorer
func NewScorer(log *logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// Score assigns RecencyScore, FrequencyScore and MonetaryScore to every row.
// Each measure is binned independently over all rows. Recency labels descend
// as the raw value grows (small recency = recent = 5); frequency and
// monetary labels ascend.
func (s *Scorer) Score(rows []contracts.CustomerMeasures) ([]contracts.ScoredRow, error) {
	specs := []struct {
		measure string
		dir     direction
		value   func(m contracts.CustomerMeasures) float64
		assign  func(r *contracts.ScoredRow, score int)
	}{
		{
			measure: "Recency",
			dir:     descending,
			value:   func(m contracts.CustomerMeasures) float64 { return float64(m.RecencyDays) },
			assign:  func(r *contracts.ScoredRow, score int) { r.RecencyScore = score },
		},
		{
			measure: "Frequency",
			dir:     ascending,
			value:   func(m contracts.CustomerMeasures) float64 { return float64(m.Frequency) },
			assign:  func(r *contracts.ScoredRow, score int) { r.FrequencyScore = score },
		},
		{
			measure: "MonetaryValue",
			dir:     ascending,
			value:   func(m contracts.CustomerMeasures) float64 { return m.MonetaryValue },
			assign:  func(r *contracts.ScoredRow, score int) { r.MonetaryScore = score },
		},
	}

	out := make([]contracts.ScoredRow, len(rows))
	for i, m := range rows {
		out[i] = contracts.ScoredRow{CustomerMeasures: m}
	}

	for _, spec := range specs {
		values := make([]float64, len(rows))
		for i, m := range rows {
			values[i] = spec.value(m)
		}

		b, err := newBinner(spec.measure, values, scoreBins, spec.dir)
		if err != nil {
			return nil, fmt.Errorf("quantile scoring: %w", err)
		}

		for i := range out {
			spec.assign(&out[i], b.score(values[i]))
		}

		s.logger.WithFields(map[string]interface{}{
			"measure": spec.measure,
			"edges":   b.edges,
		}).Debug("Computed quantile bins")
	}

	return out, nil
}
