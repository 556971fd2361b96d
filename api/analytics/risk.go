package analytics

import "fmt"

// Risk policy constants. These are tuning knobs, not derived values: the
// scoring algorithm must not change when the business adjusts them.
const (
	// On-time rate bands (percent) and weights.
	OnTimeRateSevereBelow   = 50.0
	OnTimeRateLowBelow      = 65.0
	OnTimeRateModerateBelow = 80.0
	OnTimeRateSevereWeight  = 40
	OnTimeRateLowWeight     = 25
	OnTimeRateModWeight     = 10

	// Average days-to-pay bands (days) and weights.
	DaysToPaySevereAbove  = 60.0
	DaysToPayHighAbove    = 45.0
	DaysToPaySevereWeight = 30
	DaysToPayHighWeight   = 15

	// Outstanding balance as a percentage of ARR.
	OutstandingPctSevereAbove  = 30.0
	OutstandingPctHighAbove    = 20.0
	OutstandingPctSevereWeight = 25
	OutstandingPctHighWeight   = 15

	WorseningTrendWeight = 20

	DisputeRateAbove  = 10.0
	DisputeRateWeight = 15

	// Level thresholds on the summed score.
	RiskScoreCritical = 60
	RiskScoreHigh     = 40
	RiskScoreMedium   = 20
)

// ScoreCustomerRisk converts a customer's current metrics and trend into a
// weighted risk score, level, and explanatory signals. Pure and
// deterministic: per factor, only the single matched band contributes.
func ScoreCustomerRisk(onTimeRate, averageDaysToPay, outstandingBalance, arr float64, trend TrendDirection, disputeRate float64) (RiskLevel, int, []string) {
	score := 0
	signals := []string{}

	switch {
	case onTimeRate < OnTimeRateSevereBelow:
		score += OnTimeRateSevereWeight
		signals = append(signals, fmt.Sprintf("Severely low on-time payment rate (%.1f%%)", onTimeRate))
	case onTimeRate < OnTimeRateLowBelow:
		score += OnTimeRateLowWeight
		signals = append(signals, fmt.Sprintf("Low on-time payment rate (%.1f%%)", onTimeRate))
	case onTimeRate < OnTimeRateModerateBelow:
		score += OnTimeRateModWeight
		signals = append(signals, fmt.Sprintf("Below-target on-time payment rate (%.1f%%)", onTimeRate))
	}

	switch {
	case averageDaysToPay > DaysToPaySevereAbove:
		score += DaysToPaySevereWeight
		signals = append(signals, fmt.Sprintf("Very slow payments (%.0f days average)", averageDaysToPay))
	case averageDaysToPay > DaysToPayHighAbove:
		score += DaysToPayHighWeight
		signals = append(signals, fmt.Sprintf("Slow payments (%.0f days average)", averageDaysToPay))
	}

	if arr > 0 {
		outstandingPct := outstandingBalance / arr * 100
		switch {
		case outstandingPct > OutstandingPctSevereAbove:
			score += OutstandingPctSevereWeight
			signals = append(signals, fmt.Sprintf("Outstanding balance is %.1f%% of ARR", outstandingPct))
		case outstandingPct > OutstandingPctHighAbove:
			score += OutstandingPctHighWeight
			signals = append(signals, fmt.Sprintf("Outstanding balance is %.1f%% of ARR", outstandingPct))
		}
	}

	if trend == TrendWorsening {
		score += WorseningTrendWeight
		signals = append(signals, "Payment behavior is worsening quarter over quarter")
	}

	if disputeRate > DisputeRateAbove {
		score += DisputeRateWeight
		signals = append(signals, fmt.Sprintf("High dispute rate (%.1f%%)", disputeRate))
	}

	return riskLevelFor(score), score, signals
}

func riskLevelFor(score int) RiskLevel {
	switch {
	case score >= RiskScoreCritical:
		return RiskCritical
	case score >= RiskScoreHigh:
		return RiskHigh
	case score >= RiskScoreMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}
