// internal/handlers/dailyreport/handler.go
package dailyreport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/store"
)

// CheckinCounter reads the day's visit counts back from the external store.
type CheckinCounter interface {
	DailyCheckinCounts(ctx context.Context, dayStart time.Time) (total int, uniqueStudents int, err error)
}

// ReportCache stores generated reports for dashboard reads.
type ReportCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Handler generates the daily frequency report. This is the one consumer
// handler that reads from the store rather than working off the payload alone.
type Handler struct {
	config  *Config
	counter CheckinCounter
	cache   ReportCache
	logger  logger.Logger
	now     func() time.Time
}

// NewHandler creates a daily report handler. cache may be nil when no report
// cache is configured.
func NewHandler(config *Config, counter CheckinCounter, cache ReportCache, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		counter: counter,
		cache:   cache,
		logger:  log,
		now:     time.Now,
	}
}

// Execute computes check-in totals for [start_of_day, start_of_day + 24h) and
// caches the result under report:<date>.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	reportDate := ""
	if input != nil {
		reportDate = input.ReportDate
	}
	if reportDate == "" {
		reportDate = h.now().UTC().Format("2006-01-02")
	}

	dayStart, err := time.ParseInLocation("2006-01-02", reportDate, time.UTC)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("invalid report_date %q: %v", reportDate, err))
	}

	h.logger.Info("Generating daily report", map[string]interface{}{
		"report_date": reportDate,
	})

	total, unique, err := h.counter.DailyCheckinCounts(ctx, dayStart)
	if err != nil {
		return nil, err
	}

	report := store.DailyReport{
		ReportDate:     reportDate,
		TotalCheckins:  total,
		UniqueStudents: unique,
	}

	cached := h.cacheReport(ctx, report)

	h.logger.Info("Daily report generated", map[string]interface{}{
		"report_date":     reportDate,
		"total_checkins":  total,
		"unique_students": unique,
		"cached":          cached,
	})

	return &Output{Report: report, Cached: cached}, nil
}

// cacheReport is best-effort: a cache failure never fails report generation.
func (h *Handler) cacheReport(ctx context.Context, report store.DailyReport) bool {
	if h.cache == nil {
		return false
	}

	key := "report:" + report.ReportDate
	payload, err := json.Marshal(report)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to serialize daily report for cache", nil)
		return false
	}
	if err := h.cache.Set(ctx, key, payload, h.config.CacheTTL); err != nil {
		h.logger.WithError(apperrors.NewReportCacheFailedError(key, err)).Warn("Daily report not cached", nil)
		return false
	}
	return true
}
