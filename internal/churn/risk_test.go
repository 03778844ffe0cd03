// internal/churn/risk_test.go
package churn

import (
	"context"
	"testing"
	"time"

	"gym-churn-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestEngine(t *testing.T) *Engine {
	predictor := NewPredictor(testModelConfig(t), StaticDatasetProvider{}, logger.NewNoOpLogger())
	require.NoError(t, predictor.EnsureLoaded(context.Background()))
	return NewEngineWithClock(predictor, func() time.Time { return testNow })
}

// ==========================
// Risk Assessment Tests
// ==========================

func TestEngine_AssessRisk_ActiveStudent(t *testing.T) {
	engine := newTestEngine(t)
	student := StudentProfile{ID: 7, Name: "Ana Souza", PlanName: "Monthly"}
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -1), intPtr(60)),
		checkinAt(2, testNow.AddDate(0, 0, -5), intPtr(55)),
		checkinAt(3, testNow.AddDate(0, 0, -40), nil),
	}

	assessment := engine.AssessRisk(context.Background(), student, checkins)

	assert.Equal(t, int64(7), assessment.StudentID)
	assert.Equal(t, "Ana Souza", assessment.StudentName)
	require.NotNil(t, assessment.Probability)
	assert.NotEqual(t, TierIndeterminate, assessment.Tier)
	assert.NotEqual(t, TierPredictionError, assessment.Tier)
	assert.NotEmpty(t, assessment.Reasons)

	assert.Equal(t, 1, assessment.Metrics.DaysSinceLastCheckin)
	assert.Equal(t, 38.3, assessment.Metrics.AvgVisitDurationMinutes)
	assert.Equal(t, 0.47, assessment.Metrics.WeeklyFrequency)
	assert.Equal(t, 1, assessment.Metrics.PlanTypeCode)
	assert.Equal(t, 3, assessment.Metrics.TotalCheckins)
}

func TestEngine_AssessRisk_EmptyHistory(t *testing.T) {
	engine := newTestEngine(t)
	student := StudentProfile{ID: 3, Name: "Bruno Lima", PlanName: "Annual"}

	assessment := engine.AssessRisk(context.Background(), student, nil)

	assert.Equal(t, TierIndeterminate, assessment.Tier)
	assert.Equal(t, []string{reasonNoHistory}, assessment.Reasons)
	assert.Nil(t, assessment.Probability)

	// Sentinel values are not leaked into the reported metrics.
	assert.Equal(t, 0, assessment.Metrics.DaysSinceLastCheckin)
	assert.Equal(t, 0.0, assessment.Metrics.WeeklyFrequency)
	assert.Equal(t, 0.0, assessment.Metrics.AvgVisitDurationMinutes)
	assert.Equal(t, 0, assessment.Metrics.TotalCheckins)
}

func TestEngine_AssessRisk_ModelUnavailable(t *testing.T) {
	predictor := NewPredictor(testModelConfig(t), failingDataset{}, logger.NewNoOpLogger())
	engine := NewEngineWithClock(predictor, func() time.Time { return testNow })
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -2), intPtr(45)),
	}

	assessment := engine.AssessRisk(context.Background(), StudentProfile{ID: 9, Name: "Carla"}, checkins)

	assert.Equal(t, TierPredictionError, assessment.Tier)
	assert.Contains(t, assessment.Reasons, reasonModelUnavailable)
	assert.Nil(t, assessment.Probability)
}

func TestEngine_AssessRisk_PredictionReflectsRetrain(t *testing.T) {
	predictor := NewPredictor(testModelConfig(t), StaticDatasetProvider{}, logger.NewNoOpLogger())
	require.NoError(t, predictor.EnsureLoaded(context.Background()))
	engine := NewEngineWithClock(predictor, func() time.Time { return testNow })
	checkins := []CheckinRecord{
		checkinAt(1, testNow.AddDate(0, 0, -20), intPtr(25)),
		checkinAt(2, testNow.AddDate(0, 0, -45), intPtr(20)),
	}

	before := engine.AssessRisk(context.Background(), StudentProfile{ID: 1, Name: "Davi"}, checkins)
	require.NoError(t, predictor.Retrain(context.Background()))
	after := engine.AssessRisk(context.Background(), StudentProfile{ID: 1, Name: "Davi"}, checkins)

	require.NotNil(t, before.Probability)
	require.NotNil(t, after.Probability)
	// Same deterministic training set: the swapped artifact scores identically,
	// but both assessments must come from a fully built artifact.
	assert.InDelta(t, *before.Probability, *after.Probability, 0.05)
}
