// internal/churn/features_test.go
package churn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func intPtr(v int) *int {
	return &v
}

func checkinAt(id int64, ts time.Time, duration *int) CheckinRecord {
	return CheckinRecord{
		ID:              id,
		StudentID:       1,
		Timestamp:       ts,
		DurationMinutes: duration,
	}
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// ==========================
// Plan Encoding Tests
// ==========================

func TestPlanTypeCode(t *testing.T) {
	tests := []struct {
		name     string
		planName string
		expected int
	}{
		{name: "monthly plan", planName: "Monthly", expected: 1},
		{name: "quarterly plan", planName: "Quarterly", expected: 2},
		{name: "annual plan", planName: "Annual", expected: 3},
		{name: "unknown plan", planName: "Day Pass", expected: 0},
		{name: "no plan", planName: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlanTypeCode(tt.planName))
		})
	}
}

// ==========================
// Feature Extraction Tests
// ==========================

func TestExtractFeatures_EmptyHistory(t *testing.T) {
	fv := ExtractFeatures(nil, 1, testNow)

	assert.Equal(t, NoHistorySentinel, fv.DaysSinceLastCheckin)
	assert.Equal(t, 0.0, fv.WeeklyFrequency)
	assert.Equal(t, 0.0, fv.AvgVisitDurationMinutes)
	assert.Equal(t, 1, fv.PlanTypeCode)
}

func TestExtractFeatures_RecentActiveStudent(t *testing.T) {
	// Check-ins one, five and forty days back with durations 60, 55 and none.
	checkins := []CheckinRecord{
		checkinAt(3, testNow.AddDate(0, 0, -40), nil),
		checkinAt(1, testNow.AddDate(0, 0, -1), intPtr(60)),
		checkinAt(2, testNow.AddDate(0, 0, -5), intPtr(55)),
	}

	fv := ExtractFeatures(checkins, 1, testNow)

	assert.Equal(t, 1, fv.DaysSinceLastCheckin)
	// 115 minutes across 3 check-ins, including the one with no duration.
	assert.Equal(t, 38.3, fv.AvgVisitDurationMinutes)
	// Two check-ins inside the 30-day window: 2 / (30/7).
	assert.Equal(t, 0.47, round2(fv.WeeklyFrequency))
	assert.Equal(t, 1, fv.PlanTypeCode)
}

func TestExtractFeatures_RecentWindowOverridesBaseEstimate(t *testing.T) {
	// A long history plus one recent check-in. The base estimate over the full
	// active span would be much higher than the recent-window estimate.
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -2), intPtr(50)),
	}
	for i := 0; i < 20; i++ {
		checkins = append(checkins, checkinAt(int64(100+i), testNow.AddDate(0, 0, -35-i), intPtr(45)))
	}

	fv := ExtractFeatures(checkins, 2, testNow)

	// Only the single recent check-in counts: 1 / (30/7).
	assert.Equal(t, 0.23, round2(fv.WeeklyFrequency))
}

func TestExtractFeatures_BaseEstimateWhenNoRecentCheckins(t *testing.T) {
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -40), intPtr(30)),
		checkinAt(2, testNow.AddDate(0, 0, -50), intPtr(30)),
	}

	fv := ExtractFeatures(checkins, 1, testNow)

	assert.Equal(t, 40, fv.DaysSinceLastCheckin)
	// 2 check-ins over 50 active days.
	assert.Equal(t, 0.28, round2(fv.WeeklyFrequency))
}

func TestExtractFeatures_NoDurationsRecorded(t *testing.T) {
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -3), nil),
		checkinAt(2, testNow.AddDate(0, 0, -10), nil),
	}

	fv := ExtractFeatures(checkins, 0, testNow)

	assert.Equal(t, 0.0, fv.AvgVisitDurationMinutes)
}

func TestExtractFeatures_UnorderedHistory(t *testing.T) {
	checkins := []CheckinRecord{
		checkinAt(2, testNow.AddDate(0, 0, -20), intPtr(40)),
		checkinAt(1, testNow.AddDate(0, 0, -2), intPtr(60)),
		checkinAt(3, testNow.AddDate(0, 0, -8), intPtr(50)),
	}

	fv := ExtractFeatures(checkins, 3, testNow)

	assert.Equal(t, 2, fv.DaysSinceLastCheckin)
	assert.Equal(t, 50.0, fv.AvgVisitDurationMinutes)
}

func TestExtractFeatures_DaysSinceLastIsMonotonic(t *testing.T) {
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -3), intPtr(45)),
		checkinAt(2, testNow.AddDate(0, 0, -12), intPtr(50)),
	}

	previous := -1
	for offset := 0; offset < 60; offset += 5 {
		fv := ExtractFeatures(checkins, 1, testNow.AddDate(0, 0, offset))
		assert.GreaterOrEqual(t, fv.DaysSinceLastCheckin, previous)
		previous = fv.DaysSinceLastCheckin
	}
}

func TestExtractFeatures_SameDayCheckin(t *testing.T) {
	checkins := []CheckinRecord{
		checkinAt(1, testNow.Add(-2*time.Hour), intPtr(55)),
	}

	fv := ExtractFeatures(checkins, 1, testNow)

	assert.Equal(t, 0, fv.DaysSinceLastCheckin)
	assert.Equal(t, 55.0, fv.AvgVisitDurationMinutes)
	assert.Equal(t, 0.23, round2(fv.WeeklyFrequency))
}
