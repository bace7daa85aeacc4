package report

import (
	"time"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/pkg/logger"
)

// correlationLabels names the score columns of the Champions matrix, in order
var correlationLabels = []string{"RecencyScore", "FrequencyScore", "MonetaryScore"}

// Reporter builds the aggregate views over a scored table. All views are
// read-only; the scored rows are never mutated.
type Reporter struct {
	logger *logger.Logger
}

// NewReporter creates a new aggregation reporter
func NewReporter(log *logger.Logger) *Reporter {
	return &Reporter{logger: log}
}

// Build produces the full report: value segment distribution, the
// (value segment, customer segment) breakdown, Champions sub-population
// statistics, and per-segment mean scores.
//
// Fails with EmptySubpopulationError when fewer than two rows are Champions:
// a correlation matrix over zero or one rows is undefined and must not be
// silently fabricated.
func (r *Reporter) Build(rows []contracts.ScoredRow, asOf time.Time) (*contracts.Report, error) {
	champions, err := r.Champions(rows)
	if err != nil {
		return nil, err
	}

	rep := &contracts.Report{
		AsOf:               asOf,
		TotalRows:          len(rows),
		ValueSegmentCounts: r.ValueSegmentDistribution(rows),
		SegmentBreakdown:   r.SegmentBreakdown(rows),
		Champions:          champions,
		SegmentMeans:       r.SegmentMeans(rows),
	}

	r.logger.WithFields(map[string]interface{}{
		"rows":      rep.TotalRows,
		"champions": champions.Rows,
	}).Debug("Built segmentation report")

	return rep, nil
}

// ValueSegmentDistribution counts rows per value segment, in tier order
func (r *Reporter) ValueSegmentDistribution(rows []contracts.ScoredRow) []contracts.SegmentCount {
	counts := make(map[contracts.ValueSegment]int)
	for _, row := range rows {
		counts[row.ValueSegment]++
	}

	out := make([]contracts.SegmentCount, 0, len(contracts.ValueSegmentOrder))
	for _, seg := range contracts.ValueSegmentOrder {
		out = append(out, contracts.SegmentCount{Segment: seg, Count: counts[seg]})
	}
	return out
}

// SegmentBreakdown counts rows per (value segment, customer segment) pair.
// Pairs with no rows are omitted.
func (r *Reporter) SegmentBreakdown(rows []contracts.ScoredRow) []contracts.BreakdownCount {
	type key struct {
		value    contracts.ValueSegment
		customer contracts.CustomerSegment
	}
	counts := make(map[key]int)
	for _, row := range rows {
		counts[key{row.ValueSegment, row.CustomerSegment}]++
	}

	var out []contracts.BreakdownCount
	for _, vs := range contracts.ValueSegmentOrder {
		for _, cs := range contracts.CustomerSegmentOrder {
			if n := counts[key{vs, cs}]; n > 0 {
				out = append(out, contracts.BreakdownCount{
					ValueSegment:    vs,
					CustomerSegment: cs,
					Count:           n,
				})
			}
		}
	}
	return out
}

// Champions computes score distributions and the pairwise Pearson correlation
// matrix for the Champions sub-population.
func (r *Reporter) Champions(rows []contracts.ScoredRow) (*contracts.ChampionsView, error) {
	var recency, frequency, monetary []float64
	for _, row := range rows {
		if row.CustomerSegment != contracts.SegmentChampions {
			continue
		}
		recency = append(recency, float64(row.RecencyScore))
		frequency = append(frequency, float64(row.FrequencyScore))
		monetary = append(monetary, float64(row.MonetaryScore))
	}

	if len(recency) < 2 {
		return nil, &contracts.EmptySubpopulationError{
			Segment: string(contracts.SegmentChampions),
			Rows:    len(recency),
		}
	}

	series := [][]float64{recency, frequency, monetary}
	matrix := contracts.CorrelationMatrix{
		Labels: correlationLabels,
		Values: make([][]float64, len(series)),
	}
	for i := range series {
		matrix.Values[i] = make([]float64, len(series))
		for j := range series {
			matrix.Values[i][j] = pearson(series[i], series[j])
		}
	}

	return &contracts.ChampionsView{
		Rows:        len(recency),
		Recency:     summarize(recency),
		Frequency:   summarize(frequency),
		Monetary:    summarize(monetary),
		Correlation: matrix,
	}, nil
}

// SegmentMeans computes mean R/F/M scores per customer segment, best first.
// Segments with no rows are omitted.
func (r *Reporter) SegmentMeans(rows []contracts.ScoredRow) []contracts.SegmentMeans {
	type sums struct {
		recency, frequency, monetary float64
		n                            int
	}
	bySegment := make(map[contracts.CustomerSegment]*sums)
	for _, row := range rows {
		s, ok := bySegment[row.CustomerSegment]
		if !ok {
			s = &sums{}
			bySegment[row.CustomerSegment] = s
		}
		s.recency += float64(row.RecencyScore)
		s.frequency += float64(row.FrequencyScore)
		s.monetary += float64(row.MonetaryScore)
		s.n++
	}

	var out []contracts.SegmentMeans
	for _, seg := range contracts.CustomerSegmentOrder {
		s, ok := bySegment[seg]
		if !ok {
			continue
		}
		out = append(out, contracts.SegmentMeans{
			Segment:       seg,
			RecencyMean:   s.recency / float64(s.n),
			FrequencyMean: s.frequency / float64(s.n),
			MonetaryMean:  s.monetary / float64(s.n),
		})
	}
	return out
}

// summarize computes box-plot statistics for one score series
func summarize(values []float64) contracts.ScoreSummary {
	return contracts.ScoreSummary{
		Min:    percentile(values, 0),
		Q1:     percentile(values, 0.25),
		Median: percentile(values, 0.5),
		Q3:     percentile(values, 0.75),
		Max:    percentile(values, 1),
		Mean:   mean(values),
	}
}
