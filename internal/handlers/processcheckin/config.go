// internal/handlers/processcheckin/config.go
package processcheckin

import "time"

// Config holds the check-in processing settings.
type Config struct {
	// WorkDelay bounds the simulated downstream enrichment per check-in.
	WorkDelay time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		WorkDelay: 1 * time.Second,
	}
}
