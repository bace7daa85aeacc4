package contracts

import "time"

// Transaction is a single purchase event as supplied by the ingestion
// collaborator (CSV file or Postgres). Immutable input; one row per purchase.
type Transaction struct {
	CustomerID   string    `json:"customer_id"`
	OrderID      string    `json:"order_id"`
	Amount       float64   `json:"amount"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// CustomerMeasures extends a transaction row with the raw RFM measures.
// RecencyDays is computed per row from that row's own PurchaseDate, while
// Frequency and MonetaryValue are customer-level aggregates broadcast onto
// every row of that customer. The asymmetry is intentional.
type CustomerMeasures struct {
	Transaction

	RecencyDays   int     `json:"recency_days"`
	Frequency     int     `json:"frequency"`
	MonetaryValue float64 `json:"monetary_value"`
}
