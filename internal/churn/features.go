// internal/churn/features.go
package churn

import (
	"math"
	"sort"
	"time"
)

// NoHistorySentinel marks a student with no check-in history.
const NoHistorySentinel = 999

// recentWindow is the look-back window for the weekly frequency override.
const recentWindow = 30 * 24 * time.Hour

// CheckinRecord is the read-only visit record consumed by the extractor.
// DurationMinutes is nil when the visit duration was not recorded.
type CheckinRecord struct {
	ID              int64
	StudentID       int64
	Timestamp       time.Time
	DurationMinutes *int
}

// FeatureVector is the behavioral feature set derived from a student's full
// check-in history. Computed fresh on every scoring request, never persisted.
type FeatureVector struct {
	WeeklyFrequency         float64
	DaysSinceLastCheckin    int
	AvgVisitDurationMinutes float64
	PlanTypeCode            int
}

// PlanTypeCode encodes a plan name for the feature vector. Unrecognized or
// absent plans encode to 0.
func PlanTypeCode(planName string) int {
	switch planName {
	case "Monthly":
		return 1
	case "Quarterly":
		return 2
	case "Annual":
		return 3
	default:
		return 0
	}
}

// ExtractFeatures derives the feature vector from a student's check-in history.
// The history may arrive unordered; it is sorted internally. now is injected so
// temporal metrics are testable.
func ExtractFeatures(checkins []CheckinRecord, planCode int, now time.Time) FeatureVector {
	fv := FeatureVector{
		DaysSinceLastCheckin: NoHistorySentinel,
		PlanTypeCode:         planCode,
	}
	if len(checkins) == 0 {
		return fv
	}

	nowUTC := now.UTC()

	sorted := make([]CheckinRecord, len(checkins))
	copy(sorted, checkins)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	last := sorted[len(sorted)-1].Timestamp.UTC()
	fv.DaysSinceLastCheckin = wholeDays(nowUTC.Sub(last))

	totalDuration := 0
	for _, c := range sorted {
		if c.DurationMinutes != nil {
			totalDuration += *c.DurationMinutes
		}
	}
	// Average over all check-ins, including those without a recorded duration.
	if totalDuration > 0 {
		fv.AvgVisitDurationMinutes = round1(float64(totalDuration) / float64(len(sorted)))
	}

	first := sorted[0].Timestamp.UTC()
	activeDays := wholeDays(nowUTC.Sub(first))
	if activeDays > 0 {
		fv.WeeklyFrequency = float64(len(sorted)) / float64(activeDays) * 7
	}

	// Any check-in within the last 30 days switches to the recent-window
	// estimate, even when the base estimate would differ.
	cutoff := nowUTC.Add(-recentWindow)
	recent := 0
	for _, c := range sorted {
		if !c.Timestamp.UTC().Before(cutoff) {
			recent++
		}
	}
	if recent > 0 {
		fv.WeeklyFrequency = float64(recent) / (30.0 / 7.0)
	}

	return fv
}

func wholeDays(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
