package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"CscxSaas/internal/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const isoDateFormat = "2006-01-02"

// dateLayouts are tried in order before falling back to the numeric-part
// heuristics in parseFlexibleDate.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006",
	"2006-01-02T15:04:05", "2 Jan 2006", "Jan 2, 2006",
	"January 2, 2006", "02-Jan-2006", "2-Jan-06",
}

// NormalizeRows converts raw rows into canonical InvoiceRecords using the
// supplied column mapping. A row is rejected when it has no customer
// identifier at all or its amount fails to parse; a row with an unparseable
// invoice date is kept with a warning and defaults to the run date. The run
// timestamp is captured once by the caller and reused so a whole batch sees
// one consistent "today".
func NormalizeRows(rows []RawRow, mapping ColumnMapping, defaultCurrency string, now time.Time) NormalizeResult {
	if defaultCurrency == "" {
		defaultCurrency = config.DefaultCurrency
	}
	result := NormalizeResult{
		Records:  []InvoiceRecord{},
		Errors:   []ValidationError{},
		Warnings: []string{},
	}
	result.Warnings = append(result.Warnings, datasetWarnings(mapping)...)

	today := now.Format(isoDateFormat)

	for _, row := range rows {
		get := func(header string) string {
			if header == "" {
				return ""
			}
			return strings.TrimSpace(row.Values[header])
		}

		customerID := get(mapping.CustomerID)
		customerName := get(mapping.CustomerName)
		if customerID == "" && customerName == "" {
			result.Errors = append(result.Errors, ValidationError{
				Row:     row.SourceRow,
				Field:   "customer",
				Message: "missing customer identifier (no customer ID or name)",
			})
			continue
		}
		if customerID == "" {
			customerID = customerName
		}
		if customerName == "" {
			customerName = customerID
		}

		rawAmount := get(mapping.Amount)
		amount, err := ParseAmount(rawAmount)
		if err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Row:     row.SourceRow,
				Field:   "amount",
				Message: fmt.Sprintf("invalid amount %q", rawAmount),
			})
			continue
		}
		// Invoice amounts represent face value; parenthetical negatives are
		// stored as their absolute value.
		amount = amount.Abs()

		invoiceDate, ok := ParseFlexibleDate(get(mapping.InvoiceDate))
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"row %d: invoice date %q could not be parsed, using %s",
				row.SourceRow, get(mapping.InvoiceDate), today))
			invoiceDate = today
		}
		dueDate, _ := ParseFlexibleDate(get(mapping.DueDate))
		paidDate, _ := ParseFlexibleDate(get(mapping.PaidDate))

		amountPaid := resolveAmountPaid(get(mapping.AmountPaid), amount, paidDate, mapping.AmountPaid != "")

		currency := strings.ToUpper(get(mapping.Currency))
		if currency == "" {
			currency = defaultCurrency
		}

		status := ResolveStatus(get(mapping.Status), amount, amountPaid, paidDate, dueDate, now)

		invoiceNumber := get(mapping.InvoiceID)
		if invoiceNumber == "" {
			invoiceNumber = fmt.Sprintf("ROW-%d", row.SourceRow)
		}

		amt, _ := amount.Float64()
		paid, _ := amountPaid.Float64()
		rec := InvoiceRecord{
			ID:            uuid.New().String(),
			CustomerID:    customerID,
			CustomerName:  customerName,
			InvoiceNumber: invoiceNumber,
			Amount:        amt,
			AmountPaid:    paid,
			Currency:      currency,
			InvoiceDate:   invoiceDate,
			DueDate:       dueDate,
			PaidDate:      paidDate,
			Status:        status,
			Description:   get(mapping.Description),
			SourceRow:     row.SourceRow,
		}

		if paidDate != "" && ok {
			if d, derr := daysBetween(invoiceDate, paidDate); derr == nil {
				rec.DaysToPay = &d
			}
		}
		if status != StatusPaid && status != StatusVoided && dueDate != "" {
			if d, derr := daysBetween(dueDate, today); derr == nil && d > 0 {
				rec.DaysOverdue = &d
			}
		}

		result.Records = append(result.Records, rec)
	}
	return result
}

// datasetWarnings flags missing column mappings that make downstream
// analytics unreliable. These do not block processing.
func datasetWarnings(mapping ColumnMapping) []string {
	warnings := []string{}
	if mapping.CustomerID == "" && mapping.CustomerName == "" {
		warnings = append(warnings, "no customer column detected; all rows will be rejected")
	}
	if mapping.Amount == "" {
		warnings = append(warnings, "no amount column detected; all rows will be rejected")
	}
	if mapping.DueDate == "" {
		warnings = append(warnings, "no due date column detected; overdue and on-time analytics will be unreliable")
	}
	if mapping.PaidDate == "" {
		warnings = append(warnings, "no paid date column detected; days-to-pay and DSO analytics will be unreliable")
	}
	return warnings
}

// ParseAmount parses a currency-formatted string. Currency symbols, commas
// and whitespace are stripped; a value wrapped in parentheses is negative
// (accounting notation). An empty or non-numeric value is an error.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	replacer := strings.NewReplacer("$", "", "€", "", "£", "", "₹", "", "¥", "", ",", "", " ", "", " ", "")
	cleaned = strings.TrimSpace(replacer.Replace(cleaned))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseFlexibleDate normalizes a date string to YYYY-MM-DD. Known layouts are
// tried first; otherwise the string is split on / - . into three numeric
// parts and month/day/year are disambiguated by value range:
// first two parts within 12/31 with a 4-digit third part is M/D/Y,
// then D/M/Y, then Y/M/D. Unresolvable strings return ok=false.
func ParseFlexibleDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDateFormat), true
		}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return "", false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", false
		}
		nums[i] = n
	}

	var year, month, day int
	switch {
	case nums[0] >= 1 && nums[0] <= 12 && nums[1] >= 1 && nums[1] <= 31 && nums[2] >= 1900:
		month, day, year = nums[0], nums[1], nums[2]
	case nums[1] >= 1 && nums[1] <= 12 && nums[0] >= 1 && nums[0] <= 31:
		day, month, year = nums[0], nums[1], nums[2]
		if year < 100 {
			year += 2000
		}
	case nums[0] >= 1900:
		year, month, day = nums[0], nums[1], nums[2]
	default:
		return "", false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 31); reject those.
	if int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(isoDateFormat), true
}

// resolveAmountPaid applies the amount-paid defaults: when no paid-amount
// column exists, a present paid date implies the invoice was settled in full,
// otherwise nothing has been paid.
func resolveAmountPaid(raw string, amount decimal.Decimal, paidDate string, hasPaidColumn bool) decimal.Decimal {
	if hasPaidColumn && raw != "" {
		if d, err := ParseAmount(raw); err == nil {
			return d.Abs()
		}
	}
	if paidDate != "" {
		return amount
	}
	return decimal.Zero
}

// ResolveStatus decides an invoice's status in two tiers: explicit status
// text first, then inference from the payment data. Free-text status columns
// are unreliable across billing systems, so the numeric fallback is the
// ground truth of record.
func ResolveStatus(statusText string, amount, amountPaid decimal.Decimal, paidDate, dueDate string, now time.Time) InvoiceStatus {
	text := strings.ToLower(strings.TrimSpace(statusText))
	if text != "" {
		switch {
		case strings.Contains(text, "paid") && !strings.Contains(text, "unpaid"),
			strings.Contains(text, "settled"),
			strings.Contains(text, "closed"):
			return StatusPaid
		case strings.Contains(text, "disput"), strings.Contains(text, "contest"):
			return StatusDisputed
		case strings.Contains(text, "void"), strings.Contains(text, "cancel"):
			return StatusVoided
		case strings.Contains(text, "partial"):
			return StatusPartial
		case strings.Contains(text, "overdue"), strings.Contains(text, "past due"):
			return StatusOverdue
		}
	}

	if paidDate != "" || amountPaid.GreaterThanOrEqual(amount) {
		return StatusPaid
	}
	if amountPaid.IsPositive() && amountPaid.LessThan(amount) {
		return StatusPartial
	}
	if dueDate != "" {
		if due, err := time.Parse(isoDateFormat, dueDate); err == nil && due.Before(now.Truncate(24*time.Hour)) {
			return StatusOverdue
		}
	}
	return StatusPending
}

// daysBetween returns whole days from one ISO date to another.
func daysBetween(from, to string) (int, error) {
	f, err := time.Parse(isoDateFormat, from)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse(isoDateFormat, to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}
