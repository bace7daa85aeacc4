package scoring

import (
	"math"
	"sort"

	"github.com/segmend/rfm/internal/contracts"
)

// direction controls how ordinal labels map onto bins
type direction int

const (
	// ascending assigns label 1 to the bin with the smallest values
	ascending direction = iota
	// descending assigns the highest label to the bin with the smallest values
	descending
)

// binner cuts a distribution into equal-population bins using empirical
// quantile edges and assigns ordinal labels per bin. Edges are recomputed
// from the full distribution on every construction, never fixed thresholds.
type binner struct {
	edges []float64 // len(edges) == bins+1, strictly increasing
	bins  int
	dir   direction
}

// newBinner computes quantile edges over values. It fails with
// InsufficientDistinctValuesError when the distribution cannot produce the
// required number of distinct edges (degenerate or duplicate-heavy data);
// callers must surface this, never coerce to fewer bins.
func newBinner(measure string, values []float64, bins int, dir direction) (*binner, error) {
	if len(values) == 0 {
		return nil, &contracts.InsufficientDistinctValuesError{Measure: measure, Bins: bins}
	}

	edges := quantileEdges(values, bins)
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, &contracts.InsufficientDistinctValuesError{
				Measure: measure,
				Bins:    bins,
				Values:  len(values),
			}
		}
	}

	return &binner{edges: edges, bins: bins, dir: dir}, nil
}

// quantileEdges returns bins+1 edges at evenly spaced quantiles of values,
// using linear interpolation between order statistics.
func quantileEdges(values []float64, bins int) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	edges := make([]float64, bins+1)
	for i := 0; i <= bins; i++ {
		q := float64(i) / float64(bins)
		pos := q * float64(len(sorted)-1)
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		frac := pos - float64(lo)
		edges[i] = sorted[lo]*(1-frac) + sorted[hi]*frac
	}
	return edges
}

// score returns the ordinal label (1..bins) for v. Bin i spans
// (edges[i], edges[i+1]]; the lowest bin includes the minimum.
func (b *binner) score(v float64) int {
	bin := sort.Search(b.bins-1, func(i int) bool {
		return v <= b.edges[i+1]
	})

	if b.dir == descending {
		return b.bins - bin
	}
	return bin + 1
}
