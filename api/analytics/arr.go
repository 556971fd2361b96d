package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"CscxSaas/api/invoice"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ARRLookup supplies ARR and segment for a set of customers. Implementations
// may fail; the analysis degrades to invoice-derived estimates rather than
// aborting the run.
type ARRLookup interface {
	Lookup(ctx context.Context, customerIDs []string) (map[string]CustomerProfile, error)
}

// CustomerProfileStore reads ARR/segment from the customer master tables.
type CustomerProfileStore struct {
	pool *pgxpool.Pool
}

func NewCustomerProfileStore(pool *pgxpool.Pool) *CustomerProfileStore {
	return &CustomerProfileStore{pool: pool}
}

func (s *CustomerProfileStore) Lookup(ctx context.Context, customerIDs []string) (map[string]CustomerProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT customer_id, COALESCE(arr, 0), COALESCE(segment, '')
		FROM customer_profiles
		WHERE customer_id = ANY($1)`, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer profiles: %w", err)
	}
	defer rows.Close()

	profiles := map[string]CustomerProfile{}
	for rows.Next() {
		var p CustomerProfile
		if err := rows.Scan(&p.CustomerID, &p.ARR, &p.Segment); err != nil {
			return nil, err
		}
		profiles[p.CustomerID] = p
	}
	return profiles, rows.Err()
}

// EstimateARR derives an ARR figure from the invoice data itself when no
// profile is available: total invoiced, annualized over the observed month
// span (minimum one month).
func EstimateARR(invoices []invoice.InvoiceRecord) float64 {
	total := 0.0
	var minDate, maxDate string
	for _, inv := range invoices {
		if inv.Status == invoice.StatusVoided {
			continue
		}
		total += inv.Amount
		if minDate == "" || inv.InvoiceDate < minDate {
			minDate = inv.InvoiceDate
		}
		if inv.InvoiceDate > maxDate {
			maxDate = inv.InvoiceDate
		}
	}
	if total == 0 {
		return 0
	}

	months := 1.0
	start, err1 := time.Parse("2006-01-02", minDate)
	end, err2 := time.Parse("2006-01-02", maxDate)
	if err1 == nil && err2 == nil {
		rangeDays := end.Sub(start).Hours() / 24
		months = math.Ceil(rangeDays / 30)
		if months < 1 {
			months = 1
		}
	}
	return total / months * 12
}
