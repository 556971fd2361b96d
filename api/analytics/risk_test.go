package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreCustomerRiskHealthy(t *testing.T) {
	level, score, signals := ScoreCustomerRisk(95, 20, 1000, 100000, TrendStable, 0)
	assert.Equal(t, RiskLow, level)
	assert.Equal(t, 0, score)
	assert.Empty(t, signals)
}

func TestScoreCustomerRiskOnTimeBands(t *testing.T) {
	cases := []struct {
		onTimeRate float64
		wantScore  int
	}{
		{45, OnTimeRateSevereWeight},
		{49.9, OnTimeRateSevereWeight},
		{50, OnTimeRateLowWeight},
		{64.9, OnTimeRateLowWeight},
		{65, OnTimeRateModWeight},
		{79.9, OnTimeRateModWeight},
		{80, 0},
	}
	for _, tc := range cases {
		_, score, _ := ScoreCustomerRisk(tc.onTimeRate, 20, 0, 100000, TrendStable, 0)
		assert.Equal(t, tc.wantScore, score, "onTimeRate %v", tc.onTimeRate)
	}
}

func TestScoreCustomerRiskDaysToPayBands(t *testing.T) {
	cases := []struct {
		days      float64
		wantScore int
	}{
		{61, DaysToPaySevereWeight},
		{60, 0}, // boundary is strictly greater-than
		{46, DaysToPayHighWeight},
		{45, 0},
	}
	for _, tc := range cases {
		_, score, _ := ScoreCustomerRisk(95, tc.days, 0, 100000, TrendStable, 0)
		assert.Equal(t, tc.wantScore, score, "days %v", tc.days)
	}
}

func TestScoreCustomerRiskOutstandingBands(t *testing.T) {
	// 31% of ARR outstanding.
	_, score, _ := ScoreCustomerRisk(95, 20, 31000, 100000, TrendStable, 0)
	assert.Equal(t, OutstandingPctSevereWeight, score)

	// 21% of ARR outstanding.
	_, score, _ = ScoreCustomerRisk(95, 20, 21000, 100000, TrendStable, 0)
	assert.Equal(t, OutstandingPctHighWeight, score)

	// Zero ARR skips the band entirely rather than dividing by zero.
	_, score, _ = ScoreCustomerRisk(95, 20, 50000, 0, TrendStable, 0)
	assert.Equal(t, 0, score)
}

func TestScoreCustomerRiskTrendAndDisputes(t *testing.T) {
	_, score, _ := ScoreCustomerRisk(95, 20, 0, 100000, TrendWorsening, 0)
	assert.Equal(t, WorseningTrendWeight, score)

	_, score, _ = ScoreCustomerRisk(95, 20, 0, 100000, TrendStable, 11)
	assert.Equal(t, DisputeRateWeight, score)

	// Exactly at the dispute threshold does not fire.
	_, score, _ = ScoreCustomerRisk(95, 20, 0, 100000, TrendStable, 10)
	assert.Equal(t, 0, score)
}

func TestScoreCustomerRiskLevelThresholds(t *testing.T) {
	// 40 (severe on-time) + 20 (worsening) = 60: critical starts here.
	level, score, _ := ScoreCustomerRisk(45, 20, 0, 100000, TrendWorsening, 0)
	assert.Equal(t, 60, score)
	assert.Equal(t, RiskCritical, level)

	// 40 + 15 (slow payments) = 55: still high.
	level, score, _ = ScoreCustomerRisk(45, 46, 0, 100000, TrendStable, 0)
	assert.Equal(t, 55, score)
	assert.Equal(t, RiskHigh, level)

	// 25 + 15 = 40: high starts here.
	level, score, _ = ScoreCustomerRisk(60, 46, 0, 100000, TrendStable, 0)
	assert.Equal(t, 40, score)
	assert.Equal(t, RiskHigh, level)

	// Worsening trend alone is 20: medium starts here.
	level, score, _ = ScoreCustomerRisk(95, 20, 0, 100000, TrendWorsening, 0)
	assert.Equal(t, 20, score)
	assert.Equal(t, RiskMedium, level)

	// A single 15-point factor stays low.
	level, score, _ = ScoreCustomerRisk(95, 46, 0, 100000, TrendStable, 0)
	assert.Equal(t, 15, score)
	assert.Equal(t, RiskLow, level)
}

func TestScoreCustomerRiskWorstCase(t *testing.T) {
	level, score, signals := ScoreCustomerRisk(30, 90, 50000, 100000, TrendWorsening, 50)
	assert.Equal(t, 40+30+25+20+15, score)
	assert.Equal(t, RiskCritical, level)
	assert.Len(t, signals, 5)
}

func TestScoreCustomerRiskSignalsNameTheFactor(t *testing.T) {
	_, _, signals := ScoreCustomerRisk(45, 20, 0, 100000, TrendStable, 0)
	assert.Len(t, signals, 1)
	assert.Contains(t, signals[0], "on-time payment rate")
	assert.Contains(t, signals[0], "45.0%")
}
