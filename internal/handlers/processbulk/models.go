// internal/handlers/processbulk/models.go
package processbulk

import "time"

// Input is a batch of committed check-ins to process.
type Input struct {
	CheckinIDs []int64
}

// Output reports the batch result.
type Output struct {
	Processed   int
	ProcessedAt time.Time
}
