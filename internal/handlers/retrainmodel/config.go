// internal/handlers/retrainmodel/config.go
package retrainmodel

// Config holds the retrain handler settings. Retraining runs to completion
// without a timeout; there is nothing to configure yet.
type Config struct{}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{}
}
