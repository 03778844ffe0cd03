// internal/handlers/processcheckin/models.go
package processcheckin

import "time"

// Input is one committed check-in to process.
type Input struct {
	CheckinID int64
	StudentID int64
	Timestamp string
}

// Output reports the processing result.
type Output struct {
	CheckinID   int64
	StudentID   int64
	ProcessedAt time.Time
}
