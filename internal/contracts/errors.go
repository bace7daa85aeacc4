package contracts

import (
	"errors"
	"fmt"
)

// The three failure modes of a segmentation run. All are data-quality
// problems: unrecoverable for the current run, never retried.

// MalformedInputError reports a schema or type violation in the raw input
type MalformedInputError struct {
	Row    int // 1-based data row; 0 when the violation is not row-specific
	Column string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed input: row %d, column %s: %s", e.Row, e.Column, e.Reason)
	}
	if e.Column != "" {
		return fmt.Sprintf("malformed input: column %s: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// InsufficientDistinctValuesError reports that a measure's distribution is
// too degenerate to cut into the requested number of equal-population bins.
type InsufficientDistinctValuesError struct {
	Measure string
	Bins    int
	Values  int // observations available for the cut
}

func (e *InsufficientDistinctValuesError) Error() string {
	return fmt.Sprintf("measure %s: cannot form %d equal-population bins over %d values: quantile edges are not distinct",
		e.Measure, e.Bins, e.Values)
}

// EmptySubpopulationError reports an aggregate requested over too few rows
type EmptySubpopulationError struct {
	Segment string
	Rows    int
}

func (e *EmptySubpopulationError) Error() string {
	return fmt.Sprintf("segment %s: %d matching rows, aggregate statistics are undefined", e.Segment, e.Rows)
}

// IsDataQuality reports whether err belongs to the segmentation error
// taxonomy, as opposed to an infrastructure failure.
func IsDataQuality(err error) bool {
	var malformed *MalformedInputError
	var insufficient *InsufficientDistinctValuesError
	var empty *EmptySubpopulationError
	return errors.As(err, &malformed) || errors.As(err, &insufficient) || errors.As(err, &empty)
}
