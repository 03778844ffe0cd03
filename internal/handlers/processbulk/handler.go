// internal/handlers/processbulk/handler.go
package processbulk

import (
	"context"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
)

// Handler processes a batch of committed check-ins sequentially. One message,
// one batch: items are not fanned out so the consumer's one-in-flight
// backpressure contract holds.
type Handler struct {
	config *Config
	logger logger.Logger
}

// NewHandler creates a bulk processing handler.
func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log,
	}
}

// Execute processes each check-in id in order.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewValidationFailedError("input is nil")
	}

	h.logger.Info("Processing bulk check-ins", map[string]interface{}{
		"count": len(input.CheckinIDs),
	})

	for _, id := range input.CheckinIDs {
		h.logger.Debug("Processing bulk item", map[string]interface{}{
			"checkin_id": id,
		})
		if err := sleepCtx(ctx, h.config.ItemWorkDelay); err != nil {
			return nil, err
		}
	}

	h.logger.Info("Bulk check-ins processed", map[string]interface{}{
		"count": len(input.CheckinIDs),
	})

	return &Output{
		Processed:   len(input.CheckinIDs),
		ProcessedAt: time.Now().UTC(),
	}, nil
}

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
