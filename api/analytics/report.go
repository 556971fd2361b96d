package analytics

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"CscxSaas/api/invoice"
)

// ImproverOnTimeRateAtLeast gates the payment-improvers list: an improving
// trend only counts as good news when the current on-time rate is respectable.
const ImproverOnTimeRateAtLeast = 70.0

// AnalyzePaymentPatterns runs the full payment-risk pipeline over a
// normalized record batch: per-customer metrics, quarterly trends, risk
// scores, high-risk accounts, early warnings, improvers, and a portfolio
// overview. The run timestamp is captured once so all date-diff computations
// agree. ARR lookup failures are logged and degrade to estimation; the
// analysis always produces a best-effort result.
func AnalyzePaymentPatterns(ctx context.Context, records []invoice.InvoiceRecord, arrLookup ARRLookup, now time.Time) PaymentPatternAnalysis {
	byCustomer := GroupByCustomer(records)

	customerIDs := make([]string, 0, len(byCustomer))
	for id := range byCustomer {
		customerIDs = append(customerIDs, id)
	}
	sort.Strings(customerIDs)

	profiles := map[string]CustomerProfile{}
	if arrLookup != nil && len(customerIDs) > 0 {
		looked, err := arrLookup.Lookup(ctx, customerIDs)
		if err != nil {
			log.Printf("[WARN] ARR lookup failed, falling back to invoice-derived estimates: %v", err)
		} else {
			profiles = looked
		}
	}

	metrics := make([]CustomerPaymentMetrics, 0, len(customerIDs))
	for _, id := range customerIDs {
		invoices := byCustomer[id]
		m := ComputeCustomerMetrics(id, invoices)

		if p, ok := profiles[id]; ok && p.ARR > 0 {
			m.ARR = p.ARR
			m.Segment = p.Segment
		} else {
			m.ARR = EstimateARR(invoices)
			m.ARREstimated = true
		}

		m.TrendData = BuildQuarterlyTrends(invoices)
		m.Trend = ClassifyTrend(m.TrendData)
		m.RiskLevel, m.RiskScore, m.RiskSignals = ScoreCustomerRisk(
			m.OnTimeRate, m.AverageDaysToPay, m.OutstandingBalance, m.ARR, m.Trend, m.DisputeRate)

		metrics = append(metrics, m)
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].RiskScore > metrics[j].RiskScore
	})

	highRisk := []CustomerPaymentMetrics{}
	improvers := []CustomerPaymentMetrics{}
	for _, m := range metrics {
		if m.RiskLevel == RiskHigh || m.RiskLevel == RiskCritical {
			highRisk = append(highRisk, m)
		}
		if m.Trend == TrendImproving && m.OnTimeRate >= ImproverOnTimeRateAtLeast {
			improvers = append(improvers, m)
		}
	}

	warnings := DetectEarlyWarnings(metrics, byCustomer)
	overview := BuildPortfolioOverview(records, metrics)

	return PaymentPatternAnalysis{
		Overview:         overview,
		CustomerMetrics:  metrics,
		HighRiskAccounts: highRisk,
		EarlyWarnings:    warnings,
		PaymentImprovers: improvers,
		Insights:         buildInsights(overview, metrics, highRisk, warnings),
		ActionItems:      buildActionItems(highRisk, warnings),
		GeneratedAt:      now,
	}
}

// buildInsights produces short deterministic narrative lines for the
// reporting collaborators. Anything fancier (AI narration) lives outside
// this engine.
func buildInsights(overview PortfolioOverview, metrics []CustomerPaymentMetrics, highRisk []CustomerPaymentMetrics, warnings []EarlyWarningSignal) []string {
	insights := []string{}
	insights = append(insights, fmt.Sprintf(
		"Portfolio: %d customers, %d invoices, %.2f invoiced, %.2f outstanding (DSO %d days)",
		overview.TotalCustomers, overview.TotalInvoices, overview.TotalInvoiced,
		overview.TotalOutstanding, overview.DSO))

	if len(highRisk) > 0 {
		arrExposed := 0.0
		for _, m := range highRisk {
			arrExposed += m.ARR
		}
		insights = append(insights, fmt.Sprintf(
			"%d high-risk accounts representing %.2f in ARR need attention", len(highRisk), arrExposed))
	}
	if overview.OnTimeRate < 70 {
		insights = append(insights, fmt.Sprintf(
			"Portfolio on-time rate is %.1f%%, below the 70%% health threshold", overview.OnTimeRate))
	}
	if len(warnings) > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d early-warning signals detected in otherwise healthy accounts", len(warnings)))
	}

	worsening := 0
	for _, m := range metrics {
		if m.Trend == TrendWorsening {
			worsening++
		}
	}
	if worsening > 0 {
		insights = append(insights, fmt.Sprintf("%d customers show a worsening payment trend", worsening))
	}
	return insights
}

func buildActionItems(highRisk []CustomerPaymentMetrics, warnings []EarlyWarningSignal) []string {
	items := []string{}
	for _, m := range highRisk {
		reason := "elevated payment risk"
		if len(m.RiskSignals) > 0 {
			reason = m.RiskSignals[0]
		}
		items = append(items, fmt.Sprintf("Review %s (%s risk, score %d): %s",
			m.CustomerName, m.RiskLevel, m.RiskScore, reason))
	}
	for _, w := range warnings {
		items = append(items, fmt.Sprintf("Check in with %s: %s", w.CustomerName, w.Message))
	}
	return items
}
