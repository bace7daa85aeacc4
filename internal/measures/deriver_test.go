package measures

import (
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

func tx(customer, order string, amount float64, date string) contracts.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return contracts.Transaction{CustomerID: customer, OrderID: order, Amount: amount, PurchaseDate: d}
}

func TestDeriver_Derive_Broadcast(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rows := []contracts.Transaction{
		tx("C1", "O1", 100, "2024-06-13"),
		tx("C2", "O2", 10, "2023-05-10"),
		tx("C1", "O3", 150, "2024-05-01"),
		tx("C1", "O4", 50, "2024-06-14"),
	}

	deriver := NewDeriver(testLogger())
	out, err := deriver.Derive(rows, asOf)
	require.NoError(t, err)
	require.Len(t, out, len(rows), "one output row per input row")

	// Frequency and MonetaryValue are identical across all C1 rows
	for _, m := range out {
		if m.CustomerID == "C1" {
			assert.Equal(t, 3, m.Frequency)
			assert.InDelta(t, 300.0, m.MonetaryValue, 1e-9)
		}
	}
	assert.Equal(t, 1, out[1].Frequency)
	assert.InDelta(t, 10.0, out[1].MonetaryValue, 1e-9)

	// Output preserves input order
	assert.Equal(t, "O1", out[0].OrderID)
	assert.Equal(t, "O3", out[2].OrderID)
}

func TestDeriver_Derive_RecencyIsPerRow(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := []contracts.Transaction{
		tx("C1", "O1", 100, "2024-06-13"),
		tx("C1", "O2", 100, "2024-06-01"),
	}

	out, err := NewDeriver(testLogger()).Derive(rows, asOf)
	require.NoError(t, err)

	// Same customer, different recency per row: recency follows the row's
	// own purchase date, not the customer's latest purchase.
	assert.Equal(t, 2, out[0].RecencyDays)
	assert.Equal(t, 14, out[1].RecencyDays)
}

func TestDeriver_Derive_TruncatesToWholeDays(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rows := []contracts.Transaction{
		// 36 hours before asOf -> 1 day
		{CustomerID: "C1", OrderID: "O1", Amount: 5, PurchaseDate: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)},
	}

	out, err := NewDeriver(testLogger()).Derive(rows, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, out[0].RecencyDays)
}

func TestDeriver_Derive_Malformed(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		rows   []contracts.Transaction
		column string
	}{
		{
			name:   "empty customer id",
			rows:   []contracts.Transaction{{OrderID: "O1", Amount: 1, PurchaseDate: asOf}},
			column: "CustomerID",
		},
		{
			name:   "empty order id",
			rows:   []contracts.Transaction{{CustomerID: "C1", Amount: 1, PurchaseDate: asOf}},
			column: "OrderID",
		},
		{
			name:   "zero purchase date",
			rows:   []contracts.Transaction{{CustomerID: "C1", OrderID: "O1", Amount: 1}},
			column: "PurchaseDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDeriver(testLogger()).Derive(tt.rows, asOf)
			require.Error(t, err)

			var malformed *contracts.MalformedInputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.column, malformed.Column)
			assert.Equal(t, 1, malformed.Row)
		})
	}
}

func TestDeriver_Derive_EmptyInput(t *testing.T) {
	out, err := NewDeriver(testLogger()).Derive(nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, out)
}
