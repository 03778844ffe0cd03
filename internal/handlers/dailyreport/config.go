// internal/handlers/dailyreport/config.go
package dailyreport

import "time"

// Config holds the daily report settings.
type Config struct {
	// CacheTTL bounds how long a generated report stays in the cache.
	CacheTTL time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheTTL: 24 * time.Hour,
	}
}
