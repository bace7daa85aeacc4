package measures

import (
	"time"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/pkg/logger"
)

// Deriver computes raw RFM measures from transaction rows
type Deriver struct {
	logger *logger.Logger
}

// NewDeriver creates a new measure deriver
func NewDeriver(log *logger.Logger) *Deriver {
	return &Deriver{logger: log}
}

// Derive produces one CustomerMeasures row per input transaction.
//
// RecencyDays is whole days between asOf and the row's own PurchaseDate:
// each row keeps its own recency even though Frequency and MonetaryValue are
// aggregated per customer and broadcast back onto every row of that customer.
// The asymmetry is deliberate and must not be "fixed".
//
// asOf is the reference instant for the run. Passing it explicitly (instead
// of reading the wall clock here) keeps the computation deterministic.
func (d *Deriver) Derive(rows []contracts.Transaction, asOf time.Time) ([]contracts.CustomerMeasures, error) {
	type aggregate struct {
		frequency int
		monetary  float64
	}

	// First pass: validate and aggregate per customer.
	byCustomer := make(map[string]*aggregate)
	for i, row := range rows {
		if err := validate(i+1, row); err != nil {
			return nil, err
		}

		agg, ok := byCustomer[row.CustomerID]
		if !ok {
			agg = &aggregate{}
			byCustomer[row.CustomerID] = agg
		}
		agg.frequency++
		agg.monetary += row.Amount
	}

	// Second pass: broadcast aggregates, keep per-row recency and input order.
	out := make([]contracts.CustomerMeasures, len(rows))
	for i, row := range rows {
		agg := byCustomer[row.CustomerID]
		out[i] = contracts.CustomerMeasures{
			Transaction:   row,
			RecencyDays:   wholeDays(asOf.Sub(row.PurchaseDate)),
			Frequency:     agg.frequency,
			MonetaryValue: agg.monetary,
		}
	}

	d.logger.WithFields(map[string]interface{}{
		"rows":      len(rows),
		"customers": len(byCustomer),
		"as_of":     asOf.Format(time.RFC3339),
	}).Debug("Derived RFM measures")

	return out, nil
}

// validate checks the structural requirements of a transaction row.
// Type-level violations (unparseable dates, bad amounts) are caught by the
// ingestion collaborator; this guards rows handed over programmatically.
func validate(row int, tx contracts.Transaction) error {
	switch {
	case tx.CustomerID == "":
		return &contracts.MalformedInputError{Row: row, Column: "CustomerID", Reason: "value is empty"}
	case tx.OrderID == "":
		return &contracts.MalformedInputError{Row: row, Column: "OrderID", Reason: "value is empty"}
	case tx.PurchaseDate.IsZero():
		return &contracts.MalformedInputError{Row: row, Column: "PurchaseDate", Reason: "value is not a valid date"}
	}
	return nil
}

// wholeDays truncates a duration to whole days, matching elapsed-day
// semantics: 36 hours ago is 1 day ago.
func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
