package analytics

import (
	"math"
	"sort"
	"time"

	"CscxSaas/api/invoice"

	"github.com/shopspring/decimal"
)

// DaysPerYear annualizes per-customer DSO; the portfolio figure uses the
// actual observed period instead.
const DaysPerYear = 365

// AtRiskOnTimeRateBelow marks a customer's ARR as at risk within its segment
// when their full-history on-time rate is below this.
const AtRiskOnTimeRateBelow = 70.0

// ComputeCustomerMetrics aggregates one customer's normalized invoices into
// payment metrics. Every invoice lands in exactly one of the
// paid/outstanding/disputed/voided partitions; voided invoices are excluded
// from revenue and balance sums.
func ComputeCustomerMetrics(customerID string, invoices []invoice.InvoiceRecord) CustomerPaymentMetrics {
	m := CustomerPaymentMetrics{
		CustomerID:  customerID,
		OnTimeRate:  100,
		RiskSignals: []string{},
	}

	totalInvoiced := decimal.Zero
	outstanding := decimal.Zero
	onTimeNum, onTimeDen := 0, 0
	daysToPaySum, daysToPaySamples := 0, 0

	for _, inv := range invoices {
		if m.CustomerName == "" {
			m.CustomerName = inv.CustomerName
		}
		if inv.Status == invoice.StatusVoided {
			continue
		}
		m.TotalInvoices++
		totalInvoiced = totalInvoiced.Add(decimal.NewFromFloat(inv.Amount))

		switch inv.Status {
		case invoice.StatusPaid:
			m.PaidInvoices++
			if inv.PaidDate != "" && inv.DueDate != "" {
				onTimeDen++
				if inv.PaidDate <= inv.DueDate {
					onTimeNum++
				}
			}
			if inv.DaysToPay != nil {
				daysToPaySum += *inv.DaysToPay
				daysToPaySamples++
			}
		case invoice.StatusDisputed:
			m.DisputedInvoices++
			outstanding = outstanding.Add(decimal.NewFromFloat(inv.Amount - inv.AmountPaid))
		default: // pending, overdue, partial
			m.OutstandingInvoices++
			outstanding = outstanding.Add(decimal.NewFromFloat(inv.Amount - inv.AmountPaid))
		}
	}

	m.TotalInvoiced, _ = totalInvoiced.Float64()
	m.OutstandingBalance, _ = outstanding.Float64()

	// No on-time evidence at all keeps the 100% default: absence of late
	// evidence is not evidence of lateness.
	if onTimeDen > 0 {
		m.OnTimeRate = float64(onTimeNum) / float64(onTimeDen) * 100
	}
	if daysToPaySamples > 0 {
		m.AverageDaysToPay = float64(daysToPaySum) / float64(daysToPaySamples)
	}
	if m.TotalInvoices > 0 {
		m.DisputeRate = float64(m.DisputedInvoices) / float64(m.TotalInvoices) * 100
	}
	if m.TotalInvoiced > 0 {
		m.DSO = int(math.Round(m.OutstandingBalance / m.TotalInvoiced * DaysPerYear))
	}
	return m
}

// GroupByCustomer splits a record batch per customer, each customer's
// invoices ordered by invoice date ascending.
func GroupByCustomer(records []invoice.InvoiceRecord) map[string][]invoice.InvoiceRecord {
	grouped := map[string][]invoice.InvoiceRecord{}
	for _, rec := range records {
		grouped[rec.CustomerID] = append(grouped[rec.CustomerID], rec)
	}
	for _, invoices := range grouped {
		sort.SliceStable(invoices, func(i, j int) bool {
			return invoices[i].InvoiceDate < invoices[j].InvoiceDate
		})
	}
	return grouped
}

// BuildPortfolioOverview aggregates the whole batch. The portfolio DSO uses
// the observed invoice date range as its period instead of annualizing.
func BuildPortfolioOverview(records []invoice.InvoiceRecord, metrics []CustomerPaymentMetrics) PortfolioOverview {
	overview := PortfolioOverview{
		TotalCustomers:   len(metrics),
		OnTimeRate:       100,
		SegmentBreakdown: []SegmentSummary{},
	}

	totalInvoiced := decimal.Zero
	totalOutstanding := decimal.Zero
	onTimeNum, onTimeDen := 0, 0
	disputed := 0
	var minDate, maxDate string

	for _, inv := range records {
		if inv.Status == invoice.StatusVoided {
			continue
		}
		overview.TotalInvoices++
		totalInvoiced = totalInvoiced.Add(decimal.NewFromFloat(inv.Amount))

		if minDate == "" || inv.InvoiceDate < minDate {
			minDate = inv.InvoiceDate
		}
		if inv.InvoiceDate > maxDate {
			maxDate = inv.InvoiceDate
		}

		switch inv.Status {
		case invoice.StatusPaid:
			if inv.PaidDate != "" && inv.DueDate != "" {
				onTimeDen++
				if inv.PaidDate <= inv.DueDate {
					onTimeNum++
				}
			}
		case invoice.StatusDisputed:
			disputed++
			totalOutstanding = totalOutstanding.Add(decimal.NewFromFloat(inv.Amount - inv.AmountPaid))
		default:
			totalOutstanding = totalOutstanding.Add(decimal.NewFromFloat(inv.Amount - inv.AmountPaid))
		}
	}

	overview.TotalInvoiced, _ = totalInvoiced.Float64()
	overview.TotalOutstanding, _ = totalOutstanding.Float64()
	overview.PeriodStart = minDate
	overview.PeriodEnd = maxDate

	if onTimeDen > 0 {
		overview.OnTimeRate = float64(onTimeNum) / float64(onTimeDen) * 100
	}
	if overview.TotalInvoices > 0 {
		overview.DisputeRate = float64(disputed) / float64(overview.TotalInvoices) * 100
	}
	if overview.TotalInvoiced > 0 {
		overview.DSO = int(math.Round(overview.TotalOutstanding / overview.TotalInvoiced * float64(periodDays(minDate, maxDate))))
	}

	overview.SegmentBreakdown = buildSegmentBreakdown(metrics)
	return overview
}

// periodDays is the observed invoice date range, inclusive of both ends,
// minimum one day.
func periodDays(minDate, maxDate string) int {
	start, err1 := time.Parse("2006-01-02", minDate)
	end, err2 := time.Parse("2006-01-02", maxDate)
	if err1 != nil || err2 != nil {
		return DaysPerYear
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func buildSegmentBreakdown(metrics []CustomerPaymentMetrics) []SegmentSummary {
	segments := map[string]*SegmentSummary{}
	for _, m := range metrics {
		segment := m.Segment
		if segment == "" {
			segment = "unsegmented"
		}
		s := segments[segment]
		if s == nil {
			s = &SegmentSummary{Segment: segment}
			segments[segment] = s
		}
		s.CustomerCount++
		s.TotalARR += m.ARR
		s.OutstandingBalance += m.OutstandingBalance
		// The at-risk test uses the customer's full invoice history, not the
		// segment aggregate.
		if m.OnTimeRate < AtRiskOnTimeRateBelow {
			s.ARRAtRisk += m.ARR
		}
	}

	names := make([]string, 0, len(segments))
	for name := range segments {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SegmentSummary, 0, len(names))
	for _, name := range names {
		out = append(out, *segments[name])
	}
	return out
}
