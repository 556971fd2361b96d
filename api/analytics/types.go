package analytics

import "time"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendWorsening TrendDirection = "worsening"
)

// QuarterlyPaymentTrend summarizes one customer's invoices for one calendar
// quarter. Quarter keys look like "2025-Q3".
type QuarterlyPaymentTrend struct {
	Quarter          string  `json:"quarter"`
	OnTimeRate       float64 `json:"on_time_rate"`
	AverageDaysToPay float64 `json:"average_days_to_pay"`
	OutstandingTotal float64 `json:"outstanding_total"`
	InvoiceCount     int     `json:"invoice_count"`
}

// CustomerPaymentMetrics is recomputed in full on every analysis run; nothing
// here is incrementally persisted.
type CustomerPaymentMetrics struct {
	CustomerID          string                  `json:"customer_id"`
	CustomerName        string                  `json:"customer_name"`
	TotalInvoices       int                     `json:"total_invoices"`
	PaidInvoices        int                     `json:"paid_invoices"`
	OutstandingInvoices int                     `json:"outstanding_invoices"`
	DisputedInvoices    int                     `json:"disputed_invoices"`
	TotalInvoiced       float64                 `json:"total_invoiced"`
	OnTimeRate          float64                 `json:"on_time_rate"`
	AverageDaysToPay    float64                 `json:"average_days_to_pay"`
	DSO                 int                     `json:"dso"`
	OutstandingBalance  float64                 `json:"outstanding_balance"`
	DisputeRate         float64                 `json:"dispute_rate"`
	ARR                 float64                 `json:"arr"`
	ARREstimated        bool                    `json:"arr_estimated"`
	Segment             string                  `json:"segment,omitempty"`
	Trend               TrendDirection          `json:"trend"`
	TrendData           []QuarterlyPaymentTrend `json:"trend_data"`
	RiskLevel           RiskLevel               `json:"risk_level"`
	RiskScore           int                     `json:"risk_score"`
	RiskSignals         []string                `json:"risk_signals"`
}

// EarlyWarningSignal flags a behavioral pattern change in a customer that the
// risk score's current-state view would miss.
type EarlyWarningSignal struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	SignalType   string `json:"signal_type"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
}

// Early-warning signal types and severities.
const (
	SignalTrendReversal    = "trend_reversal"
	SignalFirstLatePayment = "first_late_payment"
	SignalRisingDaysToPay  = "rising_days_to_pay"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// SegmentSummary is the per-segment slice of the portfolio overview. ARRAtRisk
// sums ARR of segment customers whose full-history on-time rate is below the
// at-risk threshold.
type SegmentSummary struct {
	Segment            string  `json:"segment"`
	CustomerCount      int     `json:"customer_count"`
	TotalARR           float64 `json:"total_arr"`
	ARRAtRisk          float64 `json:"arr_at_risk"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}

type PortfolioOverview struct {
	TotalCustomers   int              `json:"total_customers"`
	TotalInvoices    int              `json:"total_invoices"`
	TotalInvoiced    float64          `json:"total_invoiced"`
	TotalOutstanding float64          `json:"total_outstanding"`
	OnTimeRate       float64          `json:"on_time_rate"`
	DSO              int              `json:"dso"`
	DisputeRate      float64          `json:"dispute_rate"`
	PeriodStart      string           `json:"period_start"`
	PeriodEnd        string           `json:"period_end"`
	SegmentBreakdown []SegmentSummary `json:"segment_breakdown"`
}

// PaymentPatternAnalysis is the full analysis output handed to reporting and
// alerting collaborators.
type PaymentPatternAnalysis struct {
	Overview         PortfolioOverview        `json:"overview"`
	CustomerMetrics  []CustomerPaymentMetrics `json:"customer_metrics"`
	HighRiskAccounts []CustomerPaymentMetrics `json:"high_risk_accounts"`
	EarlyWarnings    []EarlyWarningSignal     `json:"early_warnings"`
	PaymentImprovers []CustomerPaymentMetrics `json:"payment_improvers"`
	Insights         []string                 `json:"insights"`
	ActionItems      []string                 `json:"action_items"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// CustomerProfile is what the ARR/segment collaborator returns per customer.
type CustomerProfile struct {
	CustomerID string  `json:"customer_id"`
	ARR        float64 `json:"arr"`
	Segment    string  `json:"segment,omitempty"`
}
