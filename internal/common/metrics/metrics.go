// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_events_consumed_total",
			Help: "Total number of events processed by the consumer",
		},
		[]string{"event_type"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_events_failed_total",
			Help: "Total number of events that failed processing",
		},
		[]string{"event_type", "error_code"},
	)

	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "consumer_event_duration_seconds",
			Help: "Duration of event processing in seconds",
		},
		[]string{"event_type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_events_dropped_total",
			Help: "Total number of events acknowledged without processing",
		},
		[]string{"reason"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_predictions_total",
			Help: "Total number of churn risk predictions by tier",
		},
		[]string{"tier"},
	)

	ModelRetrains = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "churn_model_retrains_total",
			Help: "Total number of model retrain cycles completed",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_events_published_total",
			Help: "Total number of events published to the broker",
		},
		[]string{"event_type", "status"},
	)
)
