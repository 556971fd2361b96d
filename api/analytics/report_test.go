package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"CscxSaas/api/invoice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analysisNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

type stubLookup struct {
	profiles map[string]CustomerProfile
	err      error
}

func (s stubLookup) Lookup(ctx context.Context, customerIDs []string) (map[string]CustomerProfile, error) {
	return s.profiles, s.err
}

// eightInvoiceBatch is two customers with opposite payment behavior: acme pays
// everything on time, globex pays late and carries overdue balance.
func eightInvoiceBatch() []invoice.InvoiceRecord {
	return []invoice.InvoiceRecord{
		paidInvoice("acme", "2025-01-05", "2025-02-04", "2025-01-25", 1000, 20),
		paidInvoice("acme", "2025-02-05", "2025-03-07", "2025-02-25", 1000, 20),
		paidInvoice("acme", "2025-03-05", "2025-04-04", "2025-03-25", 1000, 20),
		paidInvoice("acme", "2025-04-05", "2025-05-05", "2025-04-25", 1000, 20),
		paidInvoice("globex", "2025-01-05", "2025-02-04", "2025-03-20", 2000, 74),
		paidInvoice("globex", "2025-02-05", "2025-03-07", "2025-04-25", 2000, 79),
		openInvoice("globex", "2025-03-05", "2025-04-04", 2000, invoice.StatusOverdue),
		openInvoice("globex", "2025-04-05", "2025-05-05", 2000, invoice.StatusOverdue),
	}
}

func TestAnalyzePaymentPatternsEndToEnd(t *testing.T) {
	lookup := stubLookup{profiles: map[string]CustomerProfile{
		"acme":   {CustomerID: "acme", ARR: 48000, Segment: "mid-market"},
		"globex": {CustomerID: "globex", ARR: 96000, Segment: "enterprise"},
	}}

	analysis := AnalyzePaymentPatterns(context.Background(), eightInvoiceBatch(), lookup, analysisNow)

	require.Len(t, analysis.CustomerMetrics, 2)
	// Metrics are ordered by risk score descending, so globex leads.
	assert.Equal(t, "globex", analysis.CustomerMetrics[0].CustomerID)
	assert.Equal(t, "acme", analysis.CustomerMetrics[1].CustomerID)

	globex := analysis.CustomerMetrics[0]
	assert.InDelta(t, 0, globex.OnTimeRate, 0.001)
	assert.InDelta(t, 76.5, globex.AverageDaysToPay, 0.001)
	assert.InDelta(t, 4000, globex.OutstandingBalance, 0.001)
	assert.Equal(t, 96000.0, globex.ARR)
	assert.False(t, globex.ARREstimated)
	assert.Equal(t, "enterprise", globex.Segment)
	assert.Contains(t, []RiskLevel{RiskHigh, RiskCritical}, globex.RiskLevel)

	acme := analysis.CustomerMetrics[1]
	assert.InDelta(t, 100, acme.OnTimeRate, 0.001)
	assert.Equal(t, RiskLow, acme.RiskLevel)
	assert.Equal(t, 0, acme.RiskScore)

	require.Len(t, analysis.HighRiskAccounts, 1)
	assert.Equal(t, "globex", analysis.HighRiskAccounts[0].CustomerID)

	assert.Equal(t, 2, analysis.Overview.TotalCustomers)
	assert.Equal(t, 8, analysis.Overview.TotalInvoices)
	assert.InDelta(t, 12000, analysis.Overview.TotalInvoiced, 0.001)
	assert.InDelta(t, 4000, analysis.Overview.TotalOutstanding, 0.001)

	assert.Equal(t, analysisNow, analysis.GeneratedAt)
	assert.NotEmpty(t, analysis.Insights)
	assert.NotEmpty(t, analysis.ActionItems)
}

func TestAnalyzePaymentPatternsHighRiskAndWarningsDisjoint(t *testing.T) {
	analysis := AnalyzePaymentPatterns(context.Background(), eightInvoiceBatch(), nil, analysisNow)

	highRisk := map[string]bool{}
	for _, m := range analysis.HighRiskAccounts {
		highRisk[m.CustomerID] = true
	}
	for _, w := range analysis.EarlyWarnings {
		assert.False(t, highRisk[w.CustomerID],
			"customer %s appears in both high-risk and early warnings", w.CustomerID)
	}
}

func TestAnalyzePaymentPatternsIdempotent(t *testing.T) {
	records := eightInvoiceBatch()
	first := AnalyzePaymentPatterns(context.Background(), records, nil, analysisNow)
	second := AnalyzePaymentPatterns(context.Background(), records, nil, analysisNow)
	assert.Equal(t, first, second)
}

func TestAnalyzePaymentPatternsLookupFailureDegrades(t *testing.T) {
	lookup := stubLookup{err: errors.New("profiles table unavailable")}
	analysis := AnalyzePaymentPatterns(context.Background(), eightInvoiceBatch(), lookup, analysisNow)

	require.Len(t, analysis.CustomerMetrics, 2)
	for _, m := range analysis.CustomerMetrics {
		assert.True(t, m.ARREstimated, "customer %s should fall back to estimated ARR", m.CustomerID)
		assert.Greater(t, m.ARR, 0.0)
	}
}

func TestAnalyzePaymentPatternsImprovers(t *testing.T) {
	// acme's most recent quarter is a big improvement over Q1 and the overall
	// on-time rate is healthy, so they qualify as a payment improver.
	records := []invoice.InvoiceRecord{
		paidInvoice("acme", "2025-01-05", "2025-02-04", "2025-03-20", 1000, 74), // Q1 late
		paidInvoice("acme", "2025-01-20", "2025-02-19", "2025-02-01", 1000, 12), // Q1 on time
		paidInvoice("acme", "2025-04-05", "2025-05-05", "2025-04-25", 1000, 20), // Q2 on time
		paidInvoice("acme", "2025-04-20", "2025-05-20", "2025-05-01", 1000, 11), // Q2 on time
		paidInvoice("acme", "2025-05-05", "2025-06-04", "2025-05-20", 1000, 15), // Q2 on time
		paidInvoice("acme", "2025-05-20", "2025-06-19", "2025-06-01", 1000, 12), // Q2 on time
	}
	analysis := AnalyzePaymentPatterns(context.Background(), records, nil, analysisNow)

	require.Len(t, analysis.CustomerMetrics, 1)
	m := analysis.CustomerMetrics[0]
	assert.Equal(t, TrendImproving, m.Trend)
	require.Len(t, analysis.PaymentImprovers, 1)
	assert.Equal(t, "acme", analysis.PaymentImprovers[0].CustomerID)
}

func TestEstimateARR(t *testing.T) {
	// 6000 over roughly three months annualizes to 24000.
	invoices := []invoice.InvoiceRecord{
		openInvoice("acme", "2025-01-01", "", 2000, invoice.StatusPaid),
		openInvoice("acme", "2025-02-01", "", 2000, invoice.StatusPaid),
		openInvoice("acme", "2025-03-31", "", 2000, invoice.StatusPaid),
	}
	assert.InDelta(t, 24000, EstimateARR(invoices), 0.001)
}

func TestEstimateARRSingleInvoice(t *testing.T) {
	// A single dated invoice spans zero days: clamped to one month.
	invoices := []invoice.InvoiceRecord{
		openInvoice("acme", "2025-01-01", "", 1000, invoice.StatusPaid),
	}
	assert.InDelta(t, 12000, EstimateARR(invoices), 0.001)
}

func TestEstimateARRIgnoresVoided(t *testing.T) {
	invoices := []invoice.InvoiceRecord{
		openInvoice("acme", "2025-01-01", "", 1000, invoice.StatusPaid),
		openInvoice("acme", "2025-01-15", "", 5000, invoice.StatusVoided),
	}
	assert.InDelta(t, 12000, EstimateARR(invoices), 0.001)
}

func TestEstimateARRNoRevenue(t *testing.T) {
	assert.Equal(t, 0.0, EstimateARR(nil))
}
