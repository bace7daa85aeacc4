package scoring

import (
	"fmt"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/pkg/logger"
)

// valueTiers is the number of equal-population value tiers (Low/Mid/High)
const valueTiers = 3

// segmentRule is one ordered branch of the customer segment mapping
type segmentRule struct {
	matches func(score int) bool
	segment contracts.CustomerSegment
}

// segmentRules maps an RFM score (3-15) to a customer segment. Rules are
// evaluated in order, first match wins. The partition is a fixed business
// contract, including the singleton bands at 5 and 4. Do not rebalance it.
var segmentRules = []segmentRule{
	{func(s int) bool { return s >= 9 }, contracts.SegmentChampions},
	{func(s int) bool { return s >= 6 && s < 9 }, contracts.SegmentPotentialLoyalists},
	{func(s int) bool { return s >= 5 && s < 6 }, contracts.SegmentAtRisk},
	{func(s int) bool { return s >= 4 && s < 5 }, contracts.SegmentCantLose},
	{func(s int) bool { return s < 4 }, contracts.SegmentLost},
}

// segmentFor resolves the customer segment for an RFM score
func segmentFor(score int) contracts.CustomerSegment {
	for _, rule := range segmentRules {
		if rule.matches(score) {
			return rule.segment
		}
	}
	// Unreachable: the rule table is total over the integers
	return contracts.SegmentLost
}

// Classifier computes the composite RFM score and both segmentations
type Classifier struct {
	logger *logger.Logger
}

// NewClassifier creates a new composite classifier
func NewClassifier(log *logger.Logger) *Classifier {
	return &Classifier{logger: log}
}

// Classify fills RFMScore, ValueSegment and CustomerSegment on every row.
//
// ValueSegment is an independent quantile pass over the RFM score (3 tiers,
// ascending), separate from the fixed-threshold customer segment; the two
// labellings may disagree and both are kept.
func (c *Classifier) Classify(rows []contracts.ScoredRow) ([]contracts.ScoredRow, error) {
	out := make([]contracts.ScoredRow, len(rows))
	composite := make([]float64, len(rows))
	for i, row := range rows {
		row.RFMScore = row.RecencyScore + row.FrequencyScore + row.MonetaryScore
		out[i] = row
		composite[i] = float64(row.RFMScore)
	}

	b, err := newBinner("RFM_Score", composite, valueTiers, ascending)
	if err != nil {
		return nil, fmt.Errorf("value segmentation: %w", err)
	}

	for i := range out {
		out[i].ValueSegment = contracts.ValueSegmentOrder[b.score(composite[i])-1]
		out[i].CustomerSegment = segmentFor(out[i].RFMScore)
	}

	c.logger.WithFields(map[string]interface{}{
		"rows":  len(out),
		"edges": b.edges,
	}).Debug("Classified composite RFM scores")

	return out, nil
}
