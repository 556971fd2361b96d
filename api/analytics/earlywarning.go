package analytics

import (
	"fmt"
	"sort"

	"CscxSaas/api/invoice"
)

// Early-warning policy constants. The trend-reversal check intentionally uses
// its own hard-coded good-payer thresholds rather than the trend analyzer's
// delta rule: it flags payers who were specifically good and have dropped
// below a trust threshold, which is a distinct signal.
const (
	ReversalPriorOnTimeAtLeast = 80.0
	ReversalCurrentOnTimeBelow = 70.0

	FirstLateMinInvoices = 6
	FirstLateRecentCount = 3

	RisingDaysMinQuarters = 3
	RisingDaysTotalAbove  = 10.0
	RisingDaysSevereAbove = 20.0
)

// DetectEarlyWarnings scans every low/medium-risk customer for pattern
// changes the current-state risk score would miss. High-risk customers are
// already surfaced through the risk path and are skipped to avoid duplicate
// alerting. Each check yields at most one signal per customer per run;
// output is ordered most severe first.
func DetectEarlyWarnings(metrics []CustomerPaymentMetrics, invoicesByCustomer map[string][]invoice.InvoiceRecord) []EarlyWarningSignal {
	signals := []EarlyWarningSignal{}
	for _, m := range metrics {
		if m.RiskLevel != RiskLow && m.RiskLevel != RiskMedium {
			continue
		}
		if s := detectTrendReversal(m); s != nil {
			signals = append(signals, *s)
		}
		if s := detectFirstLatePayment(m, invoicesByCustomer[m.CustomerID]); s != nil {
			signals = append(signals, *s)
		}
		if s := detectRisingDaysToPay(m); s != nil {
			signals = append(signals, *s)
		}
	}

	rank := map[string]int{SeverityHigh: 0, SeverityMedium: 1, SeverityLow: 2}
	sort.SliceStable(signals, func(i, j int) bool {
		return rank[signals[i].Severity] < rank[signals[j].Severity]
	})
	return signals
}

// detectTrendReversal fires when a previously good payer (prior quarter
// on-time >= 80%) worsens below 70% in the current quarter.
func detectTrendReversal(m CustomerPaymentMetrics) *EarlyWarningSignal {
	if m.Trend != TrendWorsening || len(m.TrendData) < 2 {
		return nil
	}
	prev := m.TrendData[len(m.TrendData)-2]
	curr := m.TrendData[len(m.TrendData)-1]
	if prev.OnTimeRate < ReversalPriorOnTimeAtLeast || curr.OnTimeRate >= ReversalCurrentOnTimeBelow {
		return nil
	}
	return &EarlyWarningSignal{
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		SignalType:   SignalTrendReversal,
		Severity:     SeverityHigh,
		Message: fmt.Sprintf("Reliable payer turning: on-time rate dropped from %.0f%% to %.0f%% quarter over quarter",
			prev.OnTimeRate, curr.OnTimeRate),
	}
}

// detectFirstLatePayment fires on the first late payment after a clean
// streak: the historical set (all but the most recent three invoices) has no
// late-paid invoice and the recent three have at least one.
func detectFirstLatePayment(m CustomerPaymentMetrics, invoices []invoice.InvoiceRecord) *EarlyWarningSignal {
	if len(invoices) < FirstLateMinInvoices {
		return nil
	}
	ordered := make([]invoice.InvoiceRecord, len(invoices))
	copy(ordered, invoices)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].InvoiceDate < ordered[j].InvoiceDate
	})

	split := len(ordered) - FirstLateRecentCount
	for _, inv := range ordered[:split] {
		if paidLate(inv) {
			return nil
		}
	}
	recentLate := 0
	for _, inv := range ordered[split:] {
		if paidLate(inv) {
			recentLate++
		}
	}
	if recentLate == 0 {
		return nil
	}
	return &EarlyWarningSignal{
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		SignalType:   SignalFirstLatePayment,
		Severity:     SeverityMedium,
		Message: fmt.Sprintf("First late payment after a clean history: %d late of the last %d invoices",
			recentLate, FirstLateRecentCount),
	}
}

func paidLate(inv invoice.InvoiceRecord) bool {
	return inv.Status == invoice.StatusPaid && inv.PaidDate != "" && inv.DueDate != "" && inv.PaidDate > inv.DueDate
}

// detectRisingDaysToPay fires when the three most recent quarters' average
// days-to-pay are strictly increasing and the total rise exceeds 10 days.
func detectRisingDaysToPay(m CustomerPaymentMetrics) *EarlyWarningSignal {
	if len(m.TrendData) < RisingDaysMinQuarters {
		return nil
	}
	last := m.TrendData[len(m.TrendData)-3:]
	if !(last[0].AverageDaysToPay < last[1].AverageDaysToPay && last[1].AverageDaysToPay < last[2].AverageDaysToPay) {
		return nil
	}
	totalRise := last[2].AverageDaysToPay - last[0].AverageDaysToPay
	if totalRise <= RisingDaysTotalAbove {
		return nil
	}
	severity := SeverityMedium
	if totalRise > RisingDaysSevereAbove {
		severity = SeverityHigh
	}
	return &EarlyWarningSignal{
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		SignalType:   SignalRisingDaysToPay,
		Severity:     severity,
		Message: fmt.Sprintf("Days to pay rising for three straight quarters (%.0f -> %.0f -> %.0f days)",
			last[0].AverageDaysToPay, last[1].AverageDaysToPay, last[2].AverageDaysToPay),
	}
}
