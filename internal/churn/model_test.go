// internal/churn/model_test.go
package churn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gym-churn-workers/internal/common/config"
	"gym-churn-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func testModelConfig(t *testing.T) config.ModelConfig {
	return config.ModelConfig{
		ArtifactPath: filepath.Join(t.TempDir(), "churn_model.gob"),
		LearningRate: 0.1,
		Epochs:       500,
	}
}

type failingDataset struct{}

func (failingDataset) FetchTrainingSet(_ context.Context) ([]Sample, error) {
	return nil, errors.New("feature store unreachable")
}

// ==========================
// Lifecycle Tests
// ==========================

func TestPredictor_TrainsWhenArtifactMissing(t *testing.T) {
	cfg := testModelConfig(t)
	predictor := NewPredictor(cfg, StaticDatasetProvider{}, logger.NewNoOpLogger())

	err := predictor.EnsureLoaded(context.Background())
	require.NoError(t, err)

	// Training persists the artifact for the next process start.
	_, statErr := os.Stat(cfg.ArtifactPath)
	assert.NoError(t, statErr)

	prob := predictor.Predict(context.Background(), healthyFeatures())
	require.NotNil(t, prob)
	assert.GreaterOrEqual(t, *prob, 0.0)
	assert.LessOrEqual(t, *prob, 1.0)
}

func TestPredictor_LoadsExistingArtifact(t *testing.T) {
	cfg := testModelConfig(t)

	first := NewPredictor(cfg, StaticDatasetProvider{}, logger.NewNoOpLogger())
	require.NoError(t, first.EnsureLoaded(context.Background()))
	expected := first.Predict(context.Background(), atRiskFeatures())
	require.NotNil(t, expected)

	// A second predictor on the same path must load, not retrain: a failing
	// dataset provider would make any training attempt visible.
	second := NewPredictor(cfg, failingDataset{}, logger.NewNoOpLogger())
	require.NoError(t, second.EnsureLoaded(context.Background()))

	got := second.Predict(context.Background(), atRiskFeatures())
	require.NotNil(t, got)
	assert.InDelta(t, *expected, *got, 1e-9)
}

func TestPredictor_CorruptArtifactTriggersTraining(t *testing.T) {
	cfg := testModelConfig(t)
	require.NoError(t, os.WriteFile(cfg.ArtifactPath, []byte("not a gob"), 0o644))

	predictor := NewPredictor(cfg, StaticDatasetProvider{}, logger.NewNoOpLogger())
	require.NoError(t, predictor.EnsureLoaded(context.Background()))

	prob := predictor.Predict(context.Background(), healthyFeatures())
	assert.NotNil(t, prob)
}

// ==========================
// Prediction Tests
// ==========================

func TestPredictor_SeparatesRiskProfiles(t *testing.T) {
	predictor := NewPredictor(testModelConfig(t), StaticDatasetProvider{}, logger.NewNoOpLogger())
	require.NoError(t, predictor.EnsureLoaded(context.Background()))

	engaged := predictor.Predict(context.Background(), FeatureVector{
		WeeklyFrequency:         5,
		DaysSinceLastCheckin:    1,
		AvgVisitDurationMinutes: 65,
		PlanTypeCode:            3,
	})
	disengaged := predictor.Predict(context.Background(), FeatureVector{
		WeeklyFrequency:         0.2,
		DaysSinceLastCheckin:    60,
		AvgVisitDurationMinutes: 15,
		PlanTypeCode:            1,
	})

	require.NotNil(t, engaged)
	require.NotNil(t, disengaged)
	assert.Greater(t, *disengaged, *engaged)
	assert.Less(t, *engaged, 0.5)
	assert.Greater(t, *disengaged, 0.5)
}

func TestPredictor_FailsOpenWhenNoArtifactAndTrainingFails(t *testing.T) {
	predictor := NewPredictor(testModelConfig(t), failingDataset{}, logger.NewNoOpLogger())

	prob := predictor.Predict(context.Background(), healthyFeatures())

	assert.Nil(t, prob)
}

// ==========================
// Retrain Tests
// ==========================

func TestPredictor_RetrainSwapsArtifact(t *testing.T) {
	predictor := NewPredictor(testModelConfig(t), StaticDatasetProvider{}, logger.NewNoOpLogger())
	require.NoError(t, predictor.EnsureLoaded(context.Background()))

	before := predictor.current.Load()
	require.NotNil(t, before)

	require.NoError(t, predictor.Retrain(context.Background()))

	after := predictor.current.Load()
	require.NotNil(t, after)
	assert.NotSame(t, before, after)
	assert.False(t, after.TrainedAt.Before(before.TrainedAt))

	prob := predictor.Predict(context.Background(), atRiskFeatures())
	assert.NotNil(t, prob)
}

func TestPredictor_RetrainSucceedsWhenPersistenceFails(t *testing.T) {
	cfg := config.ModelConfig{
		ArtifactPath: filepath.Join(t.TempDir(), "missing-dir", "churn_model.gob"),
		LearningRate: 0.1,
		Epochs:       200,
	}
	predictor := NewPredictor(cfg, StaticDatasetProvider{}, logger.NewNoOpLogger())

	err := predictor.Retrain(context.Background())

	// Persistence failure is logged, not escalated; predictions still work.
	assert.NoError(t, err)
	assert.NotNil(t, predictor.Predict(context.Background(), healthyFeatures()))
}

func TestPredictor_RetrainFailsOnEmptyDataset(t *testing.T) {
	predictor := NewPredictor(testModelConfig(t), failingDataset{}, logger.NewNoOpLogger())

	err := predictor.Retrain(context.Background())

	assert.Error(t, err)
}
