// internal/handlers/dailyreport/models.go
package dailyreport

import "gym-churn-workers/internal/store"

// Input requests a report. ReportDate is YYYY-MM-DD; empty means the current
// UTC date.
type Input struct {
	ReportDate string
}

// Output is the generated report. Cached reports false when the cache write
// failed; the report itself is still considered generated.
type Output struct {
	Report store.DailyReport
	Cached bool
}
