package contracts

// ValueSegment is the coarse 3-tier label from quantile-binning the RFM score
type ValueSegment string

const (
	ValueLow  ValueSegment = "Low-Value"
	ValueMid  ValueSegment = "Mid-Value"
	ValueHigh ValueSegment = "High-Value"
)

// ValueSegmentOrder lists value segments in ascending tier order
var ValueSegmentOrder = []ValueSegment{ValueLow, ValueMid, ValueHigh}

// CustomerSegment is the fine-grained named label from fixed RFM score thresholds
type CustomerSegment string

const (
	SegmentChampions          CustomerSegment = "Champions"
	SegmentPotentialLoyalists CustomerSegment = "Potential Loyalists"
	SegmentAtRisk             CustomerSegment = "At Risk Customers"
	SegmentCantLose           CustomerSegment = "Can't Lose"
	SegmentLost               CustomerSegment = "Lost"
)

// CustomerSegmentOrder lists customer segments from best to worst
var CustomerSegmentOrder = []CustomerSegment{
	SegmentChampions,
	SegmentPotentialLoyalists,
	SegmentAtRisk,
	SegmentCantLose,
	SegmentLost,
}

// ScoredRow is a fully scored and segmented transaction row.
// Scores are ordinal 1-5 per measure; RFMScore is their sum (3-15).
type ScoredRow struct {
	CustomerMeasures

	RecencyScore   int `json:"recency_score"`
	FrequencyScore int `json:"frequency_score"`
	MonetaryScore  int `json:"monetary_score"`

	RFMScore        int             `json:"rfm_score"`
	ValueSegment    ValueSegment    `json:"value_segment"`
	CustomerSegment CustomerSegment `json:"customer_segment"`
}
