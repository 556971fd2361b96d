package analytics

import (
	"fmt"
	"sort"
	"time"

	"CscxSaas/api/invoice"
)

// Trend classification thresholds: the two most recent quarters are compared
// and a move beyond either threshold flips the trend off stable.
const (
	TrendOnTimeRateDelta = 10.0
	TrendDaysToPayDelta  = 5.0
)

// QuarterKey returns the calendar quarter key (YYYY-Qn) for an ISO date.
func QuarterKey(isoDate string) (string, bool) {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return "", false
	}
	quarter := (int(t.Month()) + 2) / 3
	return fmt.Sprintf("%d-Q%d", t.Year(), quarter), true
}

// BuildQuarterlyTrends buckets a customer's invoices into calendar quarters
// by invoice date and summarizes each, ordered ascending by quarter key.
// Voided invoices never represented real exposure and are excluded entirely.
// On-time accounting only counts paid invoices with both dates known; every
// other non-paid invoice adds its unpaid remainder to the quarter's
// outstanding total.
func BuildQuarterlyTrends(invoices []invoice.InvoiceRecord) []QuarterlyPaymentTrend {
	type bucket struct {
		count       int
		onTimeNum   int
		onTimeDen   int
		daysToPay   int
		daysSamples int
		outstanding float64
	}
	buckets := map[string]*bucket{}

	for _, inv := range invoices {
		if inv.Status == invoice.StatusVoided {
			continue
		}
		key, ok := QuarterKey(inv.InvoiceDate)
		if !ok {
			continue
		}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++

		if inv.Status == invoice.StatusPaid {
			if inv.PaidDate != "" && inv.DueDate != "" {
				b.onTimeDen++
				if inv.PaidDate <= inv.DueDate {
					b.onTimeNum++
				}
			}
			if inv.DaysToPay != nil {
				b.daysToPay += *inv.DaysToPay
				b.daysSamples++
			}
		} else {
			b.outstanding += inv.Amount - inv.AmountPaid
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trends := make([]QuarterlyPaymentTrend, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		t := QuarterlyPaymentTrend{
			Quarter:          k,
			OnTimeRate:       100,
			OutstandingTotal: b.outstanding,
			InvoiceCount:     b.count,
		}
		if b.onTimeDen > 0 {
			t.OnTimeRate = float64(b.onTimeNum) / float64(b.onTimeDen) * 100
		}
		if b.daysSamples > 0 {
			t.AverageDaysToPay = float64(b.daysToPay) / float64(b.daysSamples)
		}
		trends = append(trends, t)
	}
	return trends
}

// ClassifyTrend compares the two most recent quarters. Fewer than two
// quarters of history is stable: insufficient evidence, not an assumption of
// good behavior.
func ClassifyTrend(trends []QuarterlyPaymentTrend) TrendDirection {
	if len(trends) < 2 {
		return TrendStable
	}
	prev := trends[len(trends)-2]
	curr := trends[len(trends)-1]

	rateDelta := curr.OnTimeRate - prev.OnTimeRate
	daysDelta := curr.AverageDaysToPay - prev.AverageDaysToPay

	if rateDelta > TrendOnTimeRateDelta || daysDelta < -TrendDaysToPayDelta {
		return TrendImproving
	}
	if rateDelta < -TrendOnTimeRateDelta || daysDelta > TrendDaysToPayDelta {
		return TrendWorsening
	}
	return TrendStable
}
