package invoice

// RawRow is one data row as read from an uploaded file, keyed by the original
// column header. SourceRow is 1-based (row 1 is the header row) so validation
// errors can point back at the spreadsheet.
type RawRow struct {
	SourceRow int               `json:"source_row"`
	Values    map[string]string `json:"values"`
}

// ColumnMapping maps each canonical invoice field to the originating header
// name. Empty string means the field has no source column. At most one header
// maps to any field.
type ColumnMapping struct {
	InvoiceID    string `json:"invoice_id"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Amount       string `json:"amount"`
	AmountPaid   string `json:"amount_paid"`
	InvoiceDate  string `json:"invoice_date"`
	DueDate      string `json:"due_date"`
	PaidDate     string `json:"paid_date"`
	Status       string `json:"status"`
	Currency     string `json:"currency"`
	Description  string `json:"description"`
}

type InvoiceStatus string

const (
	StatusPaid     InvoiceStatus = "paid"
	StatusPending  InvoiceStatus = "pending"
	StatusOverdue  InvoiceStatus = "overdue"
	StatusPartial  InvoiceStatus = "partial"
	StatusDisputed InvoiceStatus = "disputed"
	StatusVoided   InvoiceStatus = "voided"
)

// InvoiceRecord is the canonical normalized invoice. Records are created once
// by NormalizeRows and treated as read-only everywhere downstream. Dates are
// ISO strings (YYYY-MM-DD); PaidDate is empty when the invoice is unpaid.
type InvoiceRecord struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	InvoiceNumber string        `json:"invoice_number"`
	Amount        float64       `json:"amount"`
	AmountPaid    float64       `json:"amount_paid"`
	Currency      string        `json:"currency"`
	InvoiceDate   string        `json:"invoice_date"`
	DueDate       string        `json:"due_date"`
	PaidDate      string        `json:"paid_date,omitempty"`
	Status        InvoiceStatus `json:"status"`
	Description   string        `json:"description,omitempty"`
	DaysToPay     *int          `json:"days_to_pay,omitempty"`
	DaysOverdue   *int          `json:"days_overdue,omitempty"`
	SourceRow     int           `json:"source_row"`
}

// ValidationError describes a row that was rejected during normalization.
// The row is dropped; processing of remaining rows continues.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NormalizeResult carries normalized records plus row-level errors and
// warnings. Warnings cover rows that were kept with a substituted default and
// dataset-level conditions (e.g. no due-date column detected at all).
type NormalizeResult struct {
	Records  []InvoiceRecord   `json:"records"`
	Errors   []ValidationError `json:"validation_errors"`
	Warnings []string          `json:"warnings"`
}

// ParsedInvoiceData is the full parse output handed to the UI for mapping
// confirmation before the caller commits to analysis.
type ParsedInvoiceData struct {
	ParseID         string            `json:"parse_id"`
	FileName        string            `json:"file_name"`
	Headers         []string          `json:"headers"`
	Mapping         ColumnMapping     `json:"mapping"`
	UnmappedColumns []string          `json:"unmapped_columns"`
	Records         []InvoiceRecord   `json:"records"`
	Preview         []InvoiceRecord   `json:"preview"`
	Errors          []ValidationError `json:"validation_errors"`
	Warnings        []string          `json:"warnings"`
	TotalRows       int               `json:"total_rows"`
}
