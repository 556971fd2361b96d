package config

const (
	DefaultTimeZone = "UTC"
	DefaultCurrency = "USD"
	BatchSize       = 1000

	// Nightly portfolio analysis. Overridable per deployment via
	// services.yaml.
	DefaultAnalysisSchedule = "0 2 * * *"
)
