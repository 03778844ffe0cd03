// internal/handlers/retrainmodel/handler.go
package retrainmodel

import (
	"context"
	"time"

	"gym-churn-workers/internal/common/logger"
)

// Retrainer triggers a churn model retrain cycle.
type Retrainer interface {
	Retrain(ctx context.Context) error
}

// Handler invokes the churn model lifecycle on retrain events.
type Handler struct {
	config    *Config
	retrainer Retrainer
	logger    logger.Logger
}

// NewHandler creates a retrain handler.
func NewHandler(config *Config, retrainer Retrainer, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		retrainer: retrainer,
		logger:    log,
	}
}

// Execute runs one retrain cycle to completion.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	h.logger.Info("Churn model retrain triggered", nil)

	if err := h.retrainer.Retrain(ctx); err != nil {
		h.logger.WithError(err).Error("Churn model retrain failed", nil)
		return nil, err
	}

	h.logger.Info("Churn model retrain complete", nil)
	return &Output{CompletedAt: time.Now().UTC()}, nil
}
