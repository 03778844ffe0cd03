// internal/churn/risk.go
package churn

import (
	"context"
	"time"

	"gym-churn-workers/internal/common/metrics"
)

// StudentProfile is the student data needed for a risk assessment. PlanName is
// empty when the student has no associated plan.
type StudentProfile struct {
	ID       int64
	Name     string
	PlanName string
}

// RiskMetrics is the feature snapshot echoed back in an assessment.
type RiskMetrics struct {
	WeeklyFrequency         float64 `json:"weekly_frequency"`
	DaysSinceLastCheckin    int     `json:"days_since_last_checkin"`
	AvgVisitDurationMinutes float64 `json:"avg_visit_duration_minutes"`
	PlanTypeCode            int     `json:"plan_type_code"`
	TotalCheckins           int     `json:"total_checkins"`
}

// RiskAssessment is the full scoring result for one student. Derived fresh per
// request, never persisted.
type RiskAssessment struct {
	StudentID   int64       `json:"student_id"`
	StudentName string      `json:"student_name"`
	Tier        RiskTier    `json:"risk_tier"`
	Probability *float64    `json:"churn_probability"`
	Reasons     []string    `json:"reasons"`
	Metrics     RiskMetrics `json:"metrics"`
}

// Engine combines the metrics extractor, the predictor and the risk classifier
// into the synchronous scoring path used by the HTTP layer.
type Engine struct {
	predictor *Predictor
	now       func() time.Time
}

// NewEngine creates a risk engine backed by the given predictor.
func NewEngine(predictor *Predictor) *Engine {
	return &Engine{
		predictor: predictor,
		now:       time.Now,
	}
}

// NewEngineWithClock creates an engine with an injected clock for tests.
func NewEngineWithClock(predictor *Predictor, now func() time.Time) *Engine {
	return &Engine{predictor: predictor, now: now}
}

// AssessRisk derives the feature vector from the student's full check-in
// history, scores it and classifies the result.
func (e *Engine) AssessRisk(ctx context.Context, student StudentProfile, checkins []CheckinRecord) RiskAssessment {
	planCode := PlanTypeCode(student.PlanName)
	features := ExtractFeatures(checkins, planCode, e.now())

	// No score for an empty history: the Indeterminate tier overrides it anyway.
	var probability *float64
	if len(checkins) > 0 {
		probability = e.predictor.Predict(ctx, features)
	}

	classification := Classify(features, len(checkins), probability)
	metrics.PredictionsTotal.WithLabelValues(string(classification.Tier)).Inc()

	reported := RiskMetrics{
		WeeklyFrequency:         round2(features.WeeklyFrequency),
		DaysSinceLastCheckin:    features.DaysSinceLastCheckin,
		AvgVisitDurationMinutes: features.AvgVisitDurationMinutes,
		PlanTypeCode:            features.PlanTypeCode,
		TotalCheckins:           len(checkins),
	}
	if classification.Tier == TierIndeterminate {
		reported.DaysSinceLastCheckin = 0
	}

	return RiskAssessment{
		StudentID:   student.ID,
		StudentName: student.Name,
		Tier:        classification.Tier,
		Probability: classification.Probability,
		Reasons:     classification.Reasons,
		Metrics:     reported,
	}
}
