// internal/churn/classifier_test.go
package churn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func floatPtr(v float64) *float64 {
	return &v
}

func healthyFeatures() FeatureVector {
	return FeatureVector{
		WeeklyFrequency:         4,
		DaysSinceLastCheckin:    2,
		AvgVisitDurationMinutes: 60,
		PlanTypeCode:            1,
	}
}

func atRiskFeatures() FeatureVector {
	return FeatureVector{
		WeeklyFrequency:         0.5,
		DaysSinceLastCheckin:    20,
		AvgVisitDurationMinutes: 20,
		PlanTypeCode:            1,
	}
}

// ==========================
// Tier Boundary Tests
// ==========================

func TestClassify_TierBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		expected    RiskTier
	}{
		{name: "exactly 0.70 is very high", probability: 0.70, expected: TierVeryHigh},
		{name: "just below 0.70 is high", probability: 0.6999, expected: TierHigh},
		{name: "exactly 0.50 is high", probability: 0.50, expected: TierHigh},
		{name: "just below 0.50 is medium", probability: 0.4999, expected: TierMedium},
		{name: "exactly 0.30 is medium", probability: 0.30, expected: TierMedium},
		{name: "just below 0.30 is low", probability: 0.2999, expected: TierLow},
		{name: "certain churn", probability: 1.0, expected: TierVeryHigh},
		{name: "no churn signal", probability: 0.0, expected: TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(healthyFeatures(), 10, floatPtr(tt.probability))

			assert.Equal(t, tt.expected, result.Tier)
			require.NotNil(t, result.Probability)
			assert.InDelta(t, tt.probability, *result.Probability, 0.005)
		})
	}
}

// ==========================
// Override Rule Tests
// ==========================

func TestClassify_EmptyHistoryOverridesEverything(t *testing.T) {
	tests := []struct {
		name        string
		probability *float64
	}{
		{name: "with a high probability", probability: floatPtr(0.95)},
		{name: "with a low probability", probability: floatPtr(0.05)},
		{name: "with no probability", probability: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := FeatureVector{DaysSinceLastCheckin: NoHistorySentinel}
			result := Classify(fv, 0, tt.probability)

			assert.Equal(t, TierIndeterminate, result.Tier)
			assert.Equal(t, []string{reasonNoHistory}, result.Reasons)
			assert.Nil(t, result.Probability)
		})
	}
}

func TestClassify_UnavailableModel(t *testing.T) {
	result := Classify(atRiskFeatures(), 10, nil)

	assert.Equal(t, TierPredictionError, result.Tier)
	assert.Contains(t, result.Reasons, reasonModelUnavailable)
	assert.Nil(t, result.Probability)
}

// ==========================
// Contextual Reason Tests
// ==========================

func TestClassify_ContextualReasonsForElevatedTiers(t *testing.T) {
	result := Classify(atRiskFeatures(), 10, floatPtr(0.85))

	assert.Equal(t, TierVeryHigh, result.Tier)
	assert.Contains(t, result.Reasons, "Churn probability very high (0.85).")
	assert.Contains(t, result.Reasons, "Last check-in 20 days ago.")
	assert.Contains(t, result.Reasons, "Low average visit duration (20.0 min).")
	assert.Contains(t, result.Reasons, "Weekly frequency below 1 (0.5).")
	assert.Len(t, result.Reasons, 4)
}

func TestClassify_ContextualReasonsSuppressedForLowTier(t *testing.T) {
	// Every contextual condition holds numerically, but the tier is Low.
	result := Classify(atRiskFeatures(), 10, floatPtr(0.1))

	assert.Equal(t, TierLow, result.Tier)
	assert.Equal(t, []string{"Churn probability low (0.10)."}, result.Reasons)
}

func TestClassify_ContextualReasonsRequireEnoughHistory(t *testing.T) {
	// Low duration and frequency need more than 5 check-ins to be meaningful.
	result := Classify(atRiskFeatures(), 3, floatPtr(0.85))

	assert.Contains(t, result.Reasons, "Last check-in 20 days ago.")
	assert.NotContains(t, result.Reasons, "Low average visit duration (20.0 min).")
	assert.NotContains(t, result.Reasons, "Weekly frequency below 1 (0.5).")
}

func TestClassify_NoDuplicateReasons(t *testing.T) {
	result := Classify(atRiskFeatures(), 10, floatPtr(0.85))

	seen := make(map[string]bool)
	for _, r := range result.Reasons {
		assert.False(t, seen[r], "duplicate reason: %s", r)
		seen[r] = true
	}
}

func TestDedupe(t *testing.T) {
	out := dedupe([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}
