// internal/handlers/retrainmodel/models.go
package retrainmodel

import "time"

// Output reports a completed retrain cycle.
type Output struct {
	CompletedAt time.Time
}
