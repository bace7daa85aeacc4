package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/segmend/rfm/internal/contracts"
)

// Repository loads transaction rows from Postgres. It is a source only:
// segmentation results are never written back (results persistence is an
// explicit non-goal).
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new transaction repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListTransactions returns transactions in purchase-date order, optionally
// restricted to [from, to). Zero bounds are unbounded.
func (r *Repository) ListTransactions(ctx context.Context, from, to time.Time) ([]contracts.Transaction, error) {
	query := `
		SELECT customer_id, order_id, amount, purchase_date
		FROM data.transactions
		WHERE ($1::timestamptz IS NULL OR purchase_date >= $1)
		  AND ($2::timestamptz IS NULL OR purchase_date < $2)
		ORDER BY purchase_date, order_id
	`

	rows, err := r.db.Query(ctx, query, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []contracts.Transaction
	for rows.Next() {
		var tx contracts.Transaction
		if err := rows.Scan(&tx.CustomerID, &tx.OrderID, &tx.Amount, &tx.PurchaseDate); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

// Count returns the number of transactions available
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM data.transactions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
