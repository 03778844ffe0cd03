// internal/consumer/processor.go
package consumer

import (
	"context"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/common/metrics"
	"gym-churn-workers/internal/common/observability"
	"gym-churn-workers/internal/events"
	"gym-churn-workers/internal/handlers/dailyreport"
	"gym-churn-workers/internal/handlers/processbulk"
	"gym-churn-workers/internal/handlers/processcheckin"
	"gym-churn-workers/internal/handlers/retrainmodel"
)

// Processor routes decoded queue messages to their handlers and decides the
// acknowledgment for each. Per message: Received -> Parsed -> Dispatched ->
// Acked or Nacked.
type Processor struct {
	checkin *processcheckin.Handler
	bulk    *processbulk.Handler
	report  *dailyreport.Handler
	retrain *retrainmodel.Handler
	logger  logger.Logger
	obs     *observability.Observability
}

// NewProcessor wires the dispatch table. obs may be nil.
func NewProcessor(
	checkin *processcheckin.Handler,
	bulk *processbulk.Handler,
	report *dailyreport.Handler,
	retrain *retrainmodel.Handler,
	log logger.Logger,
	obs *observability.Observability,
) *Processor {
	return &Processor{
		checkin: checkin,
		bulk:    bulk,
		report:  report,
		retrain: retrain,
		logger:  log,
		obs:     obs,
	}
}

// Handle processes one raw message body and reports whether to acknowledge it.
// Unknown message types are acknowledged and dropped; decode failures and
// handler errors are nacked for broker-default requeue.
func (p *Processor) Handle(ctx context.Context, body []byte) bool {
	start := time.Now()

	event, err := events.Decode(body)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeUnknownEventType {
			p.logger.WithError(err).Warn("Unknown event type, dropping message", map[string]interface{}{
				"body": string(body),
			})
			metrics.EventsDropped.WithLabelValues("unknown_type").Inc()
			return true
		}
		p.logger.WithError(err).Error("Failed to decode event", map[string]interface{}{
			"body": string(body),
		})
		metrics.EventsFailed.WithLabelValues("undecodable", string(apperrors.CodeOf(err))).Inc()
		return false
	}

	eventType := typeOf(event)
	err = p.dispatch(ctx, event)
	if err != nil {
		p.logger.WithError(err).Error("Event handler failed", map[string]interface{}{
			"event_type": eventType,
		})
		metrics.EventsFailed.WithLabelValues(eventType, string(apperrors.CodeOf(err))).Inc()
		p.recordObservability(ctx, eventType, "failure", start)
		return false
	}

	metrics.EventsConsumed.WithLabelValues(eventType).Inc()
	metrics.EventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	p.recordObservability(ctx, eventType, "success", start)
	return true
}

func (p *Processor) dispatch(ctx context.Context, event interface{}) error {
	switch e := event.(type) {
	case events.NewCheckinEvent:
		_, err := p.checkin.Execute(ctx, &processcheckin.Input{
			CheckinID: e.CheckinID,
			StudentID: e.StudentID,
			Timestamp: e.Timestamp,
		})
		return err
	case events.BulkCheckinEvent:
		_, err := p.bulk.Execute(ctx, &processbulk.Input{CheckinIDs: e.CheckinIDs})
		return err
	case events.GenerateDailyReportEvent:
		_, err := p.report.Execute(ctx, &dailyreport.Input{ReportDate: e.ReportDate})
		return err
	case events.RetrainModelEvent:
		_, err := p.retrain.Execute(ctx)
		return err
	default:
		// Decode only produces the four variants above.
		return apperrors.NewUnknownEventTypeError(typeOf(event))
	}
}

func (p *Processor) recordObservability(ctx context.Context, eventType, status string, start time.Time) {
	if p.obs == nil {
		return
	}
	p.obs.RecordEventProcessed(ctx, eventType, status)
	p.obs.RecordEventDuration(ctx, time.Since(start), eventType)
}

func typeOf(event interface{}) string {
	switch event.(type) {
	case events.NewCheckinEvent:
		return events.TypeNewCheckin
	case events.BulkCheckinEvent:
		return events.TypeBulkCheckin
	case events.GenerateDailyReportEvent:
		return events.TypeGenerateDailyReport
	case events.RetrainModelEvent:
		return events.TypeRetrainModel
	default:
		return "unknown"
	}
}
