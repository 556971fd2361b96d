package constants

// Common error messages
const (
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrInvalidRequestBody = "Invalid request body"
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrDB                 = "DB error"
	ErrFailedToQuery      = "Failed to query"
)

// Content Types
const (
	ContentTypeJSON   = "application/json"
	ContentTypeHeader = "Content-Type"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	DateFormatISO  = "2006-01-02T15:04:05"
)

// Upload handling
const (
	PreviewRowCount = 10
	MaxUploadBytes  = 32 << 20
)

// NBSP is the non-breaking space some billing exports embed in header cells.
const NBSP = "\u00a0"
