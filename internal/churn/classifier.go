// internal/churn/classifier.go
package churn

import "fmt"

// RiskTier is the classified churn risk level.
type RiskTier string

const (
	TierIndeterminate   RiskTier = "Indeterminate"
	TierLow             RiskTier = "Low"
	TierMedium          RiskTier = "Medium"
	TierHigh            RiskTier = "High"
	TierVeryHigh        RiskTier = "Very High"
	TierPredictionError RiskTier = "Prediction-Error"
)

// Probability thresholds, closed below. Evaluated most severe first.
const (
	thresholdVeryHigh = 0.70
	thresholdHigh     = 0.50
	thresholdMedium   = 0.30
)

const (
	reasonNoHistory        = "No check-ins recorded for churn analysis."
	reasonModelUnavailable = "Churn prediction unavailable (model missing or error)."
)

// Classification is the risk classifier output. Probability is rounded to two
// decimals, or nil when no score was computed.
type Classification struct {
	Tier        RiskTier
	Reasons     []string
	Probability *float64
}

// Classify maps a feature vector and model probability to a risk tier with
// human-readable reasons. probability is nil when the model produced no score.
func Classify(features FeatureVector, totalCheckins int, probability *float64) Classification {
	// Empty history wins over everything else, including model availability.
	if totalCheckins == 0 {
		return Classification{
			Tier:    TierIndeterminate,
			Reasons: []string{reasonNoHistory},
		}
	}

	if probability == nil {
		return Classification{
			Tier:    TierPredictionError,
			Reasons: dedupe([]string{reasonModelUnavailable}),
		}
	}

	// Thresholds apply to the raw probability; rounding is presentation only,
	// so 0.6999 stays below the Very High cutoff.
	raw := *probability
	p := round2(raw)

	var tier RiskTier
	var reasons []string
	switch {
	case raw >= thresholdVeryHigh:
		tier = TierVeryHigh
		reasons = append(reasons, fmt.Sprintf("Churn probability very high (%.2f).", p))
	case raw >= thresholdHigh:
		tier = TierHigh
		reasons = append(reasons, fmt.Sprintf("Churn probability high (%.2f).", p))
	case raw >= thresholdMedium:
		tier = TierMedium
		reasons = append(reasons, fmt.Sprintf("Churn probability medium (%.2f).", p))
	default:
		tier = TierLow
		reasons = append(reasons, fmt.Sprintf("Churn probability low (%.2f).", p))
	}

	// Contextual reasons never apply to the Low tier.
	if tier != TierLow {
		if features.DaysSinceLastCheckin > 15 {
			reasons = append(reasons, fmt.Sprintf("Last check-in %d days ago.", features.DaysSinceLastCheckin))
		}
		if features.AvgVisitDurationMinutes < 30 && totalCheckins > 5 {
			reasons = append(reasons, fmt.Sprintf("Low average visit duration (%.1f min).", features.AvgVisitDurationMinutes))
		}
		if features.WeeklyFrequency < 1 && totalCheckins > 5 {
			reasons = append(reasons, fmt.Sprintf("Weekly frequency below 1 (%.1f).", features.WeeklyFrequency))
		}
	}

	return Classification{
		Tier:        tier,
		Reasons:     dedupe(reasons),
		Probability: &p,
	}
}

// dedupe removes duplicate reason strings, preserving first-seen order.
func dedupe(reasons []string) []string {
	seen := make(map[string]struct{}, len(reasons))
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
