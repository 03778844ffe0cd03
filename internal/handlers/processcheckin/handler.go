// internal/handlers/processcheckin/handler.go
package processcheckin

import (
	"context"
	"fmt"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
)

// Handler processes a single committed check-in. The downstream work is a
// bounded simulated delay standing in for analytics enrichment.
type Handler struct {
	config *Config
	logger logger.Logger
}

// NewHandler creates a check-in processing handler.
func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log,
	}
}

// Execute processes one check-in.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewValidationFailedError("input is nil")
	}
	if input.CheckinID <= 0 {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("invalid checkin_id: %d", input.CheckinID))
	}
	if input.StudentID <= 0 {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("invalid student id: %d", input.StudentID))
	}

	h.logger.Info("Processing check-in", map[string]interface{}{
		"checkin_id": input.CheckinID,
		"student_id": input.StudentID,
	})

	if err := sleepCtx(ctx, h.config.WorkDelay); err != nil {
		return nil, err
	}

	h.logger.Info("Check-in processed", map[string]interface{}{
		"checkin_id": input.CheckinID,
	})

	return &Output{
		CheckinID:   input.CheckinID,
		StudentID:   input.StudentID,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// sleepCtx waits for the delay or the context, whichever ends first.
func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
