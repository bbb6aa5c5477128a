package config

import "time"

// TimeoutConfig holds the HTTP server timeouts.
// These can be configured via CLI flags to tune behavior for different environments.
type TimeoutConfig struct {
	// Read is the time allowed to read a whole request, body included.
	// Default: 15s
	Read time.Duration

	// Idle is how long keep-alive connections wait for the next request.
	// Default: 120s
	Idle time.Duration

	// Request bounds the handling of a single request.
	// Default: 60s
	Request time.Duration

	// Shutdown is how long in-flight requests get to finish on exit.
	// Default: 30s
	Shutdown time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Read:     15 * time.Second,
		Idle:     120 * time.Second,
		Request:  60 * time.Second,
		Shutdown: 30 * time.Second,
	}
}
