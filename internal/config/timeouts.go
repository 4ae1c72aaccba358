package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Create            time.Duration // Timeout for a single create call
	Ready             time.Duration // Timeout for waiting on resource readiness
	Delete            time.Duration // Timeout for all delete operations
	PollInterval      time.Duration // Initial readiness poll interval
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - CLOUDLAB_TIMEOUT_CREATE (default: 5m)
//   - CLOUDLAB_TIMEOUT_READY (default: 10m)
//   - CLOUDLAB_TIMEOUT_DELETE (default: 10m)
//   - CLOUDLAB_POLL_INTERVAL (default: 2s)
//   - CLOUDLAB_RETRY_MAX_ATTEMPTS (default: 5)
//   - CLOUDLAB_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Create:            parseDuration("CLOUDLAB_TIMEOUT_CREATE", 5*time.Minute),
		Ready:             parseDuration("CLOUDLAB_TIMEOUT_READY", 10*time.Minute),
		Delete:            parseDuration("CLOUDLAB_TIMEOUT_DELETE", 10*time.Minute),
		PollInterval:      parseDuration("CLOUDLAB_POLL_INTERVAL", 2*time.Second),
		RetryMaxAttempts:  parseInt("CLOUDLAB_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("CLOUDLAB_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
