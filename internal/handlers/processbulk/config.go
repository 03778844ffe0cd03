// internal/handlers/processbulk/config.go
package processbulk

import "time"

// Config holds the bulk processing settings.
type Config struct {
	// ItemWorkDelay bounds the simulated work per check-in in the batch.
	ItemWorkDelay time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		ItemWorkDelay: 500 * time.Millisecond,
	}
}
