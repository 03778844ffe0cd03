// internal/churn/model.go
package churn

import (
	"context"
	"encoding/gob"
	"errors"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gym-churn-workers/internal/common/config"
	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/common/metrics"
)

const featureCount = 4

// Sample is one labeled training row.
type Sample struct {
	WeeklyFrequency         float64
	DaysSinceLastCheckin    float64
	AvgVisitDurationMinutes float64
	PlanTypeCode            float64
	Churned                 bool
}

// DatasetProvider fetches the labeled training set for (re)training. In a real
// deployment this reads from a feature store; the static provider below stands
// in until one exists.
type DatasetProvider interface {
	FetchTrainingSet(ctx context.Context) ([]Sample, error)
}

// StaticDatasetProvider serves a fixed seed dataset.
type StaticDatasetProvider struct{}

// FetchTrainingSet returns the seed dataset.
func (StaticDatasetProvider) FetchTrainingSet(_ context.Context) ([]Sample, error) {
	return []Sample{
		{5, 1, 60, 1, false},
		{4, 5, 55, 2, false},
		{1, 10, 40, 1, false},
		{0.5, 20, 25, 1, true},
		{3, 3, 70, 3, false},
		{2, 7, 50, 2, false},
		{0, 40, 20, 1, true},
		{6, 2, 65, 3, false},
		{1.5, 15, 35, 1, true},
		{0.2, 60, 15, 1, true},
		{4.5, 4, 75, 2, false},
		{3.8, 6, 68, 3, false},
		{0.8, 25, 28, 1, true},
		{0, 90, 10, 1, true},
		{5, 8, 80, 3, false},
		{2.5, 12, 48, 2, false},
		{1.2, 18, 33, 1, true},
		{3.1, 5, 62, 3, false},
	}, nil
}

// Artifact is the persisted state of a trained logistic regression model.
// Features are standardized with the stored means and scales before scoring.
type Artifact struct {
	Weights   [featureCount]float64
	Bias      float64
	Means     [featureCount]float64
	Scales    [featureCount]float64
	TrainedAt time.Time
}

func (a *Artifact) score(fv FeatureVector) float64 {
	x := [featureCount]float64{
		fv.WeeklyFrequency,
		float64(fv.DaysSinceLastCheckin),
		fv.AvgVisitDurationMinutes,
		float64(fv.PlanTypeCode),
	}
	z := a.Bias
	for i := 0; i < featureCount; i++ {
		z += a.Weights[i] * (x[i] - a.Means[i]) / a.Scales[i]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Predictor owns the classifier artifact lifecycle: load-or-train on first use,
// predict, retrain-and-persist on demand. The artifact is replaced with an
// atomic pointer swap so in-flight predictions never observe a partial state.
type Predictor struct {
	current atomic.Pointer[Artifact]

	trainMu sync.Mutex // serializes load/train/persist cycles

	artifactPath string
	learningRate float64
	epochs       int
	dataset      DatasetProvider
	log          logger.Logger
}

// NewPredictor creates a predictor. The artifact is loaded lazily on the first
// Predict call, or eagerly via EnsureLoaded.
func NewPredictor(cfg config.ModelConfig, dataset DatasetProvider, log logger.Logger) *Predictor {
	return &Predictor{
		artifactPath: cfg.ArtifactPath,
		learningRate: cfg.LearningRate,
		epochs:       cfg.Epochs,
		dataset:      dataset,
		log:          log,
	}
}

// EnsureLoaded makes sure an artifact is available: loads it from disk when
// present, trains a fresh one otherwise. Load I/O failures are treated the same
// as a missing artifact.
func (p *Predictor) EnsureLoaded(ctx context.Context) error {
	if p.current.Load() != nil {
		return nil
	}

	p.trainMu.Lock()
	defer p.trainMu.Unlock()
	if p.current.Load() != nil {
		return nil
	}

	artifact, err := loadArtifact(p.artifactPath)
	if err == nil {
		p.current.Store(artifact)
		p.log.Info("Churn model artifact loaded", map[string]interface{}{
			"path":       p.artifactPath,
			"trained_at": artifact.TrainedAt,
		})
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		p.log.WithError(err).Warn("Churn model artifact unreadable, training a new one", map[string]interface{}{
			"path": p.artifactPath,
		})
	} else {
		p.log.Info("Churn model artifact not found, training a new one", map[string]interface{}{
			"path": p.artifactPath,
		})
	}

	return p.trainAndSwap(ctx)
}

// Predict scores a feature vector, returning nil when no score is available.
// It never returns an error to the caller: the classifier maps a nil score to
// the dedicated Prediction-Error tier.
func (p *Predictor) Predict(ctx context.Context, fv FeatureVector) *float64 {
	artifact := p.current.Load()
	if artifact == nil {
		if err := p.EnsureLoaded(ctx); err != nil {
			p.log.WithError(apperrors.NewModelUnavailableError()).Error("Churn prediction skipped", map[string]interface{}{
				"cause": err.Error(),
			})
			return nil
		}
		artifact = p.current.Load()
	}
	if artifact == nil {
		return nil
	}

	prob := artifact.score(fv)
	return &prob
}

// Retrain fetches a fresh labeled dataset, fits a new artifact, persists it and
// atomically swaps it in for subsequent predictions.
func (p *Predictor) Retrain(ctx context.Context) error {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()
	return p.trainAndSwap(ctx)
}

func (p *Predictor) trainAndSwap(ctx context.Context) error {
	samples, err := p.dataset.FetchTrainingSet(ctx)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return apperrors.NewValidationFailedError("training set is empty")
	}

	p.log.Info("Training churn model", map[string]interface{}{
		"samples": len(samples),
		"epochs":  p.epochs,
	})

	artifact := train(samples, p.learningRate, p.epochs)

	// Persistence failure is logged, not escalated: the in-memory swap still
	// happens and predictions use the new artifact.
	if err := saveArtifact(p.artifactPath, artifact); err != nil {
		p.log.WithError(apperrors.NewArtifactSaveFailedError(p.artifactPath, err)).Error("Churn model persisted state is stale", nil)
	}

	p.current.Store(artifact)
	metrics.ModelRetrains.Inc()
	p.log.Info("Churn model training complete", map[string]interface{}{
		"trained_at": artifact.TrainedAt,
	})
	return nil
}

// train fits a logistic regression by gradient descent on standardized features.
func train(samples []Sample, learningRate float64, epochs int) *Artifact {
	n := float64(len(samples))

	rows := make([][featureCount]float64, len(samples))
	labels := make([]float64, len(samples))
	for i, s := range samples {
		rows[i] = [featureCount]float64{
			s.WeeklyFrequency,
			s.DaysSinceLastCheckin,
			s.AvgVisitDurationMinutes,
			s.PlanTypeCode,
		}
		if s.Churned {
			labels[i] = 1
		}
	}

	var means, scales [featureCount]float64
	for j := 0; j < featureCount; j++ {
		for i := range rows {
			means[j] += rows[i][j]
		}
		means[j] /= n
		for i := range rows {
			d := rows[i][j] - means[j]
			scales[j] += d * d
		}
		scales[j] = math.Sqrt(scales[j] / n)
		if scales[j] == 0 {
			scales[j] = 1
		}
		for i := range rows {
			rows[i][j] = (rows[i][j] - means[j]) / scales[j]
		}
	}

	var weights [featureCount]float64
	var bias float64
	for epoch := 0; epoch < epochs; epoch++ {
		var gradW [featureCount]float64
		var gradB float64
		for i := range rows {
			z := bias
			for j := 0; j < featureCount; j++ {
				z += weights[j] * rows[i][j]
			}
			diff := sigmoid(z) - labels[i]
			for j := 0; j < featureCount; j++ {
				gradW[j] += diff * rows[i][j]
			}
			gradB += diff
		}
		for j := 0; j < featureCount; j++ {
			weights[j] -= learningRate * gradW[j] / n
		}
		bias -= learningRate * gradB / n
	}

	return &Artifact{
		Weights:   weights,
		Bias:      bias,
		Means:     means,
		Scales:    scales,
		TrainedAt: time.Now().UTC(),
	}
}

func loadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var artifact Artifact
	if err := gob.NewDecoder(f).Decode(&artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// saveArtifact writes to a temp file and renames so a crash mid-write never
// leaves a truncated artifact on disk.
func saveArtifact(path string, artifact *Artifact) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(artifact); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
