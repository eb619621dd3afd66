// Package health guards the item backend with a circuit breaker.
//
// Server-rendered pages fetch from the backend on every request. When the
// backend is down those fetches would each wait for a transport timeout; the
// breaker opens after a run of consecutive failures and lets renders fall
// back to the empty state immediately until the backend recovers:
//
//	CLOSED -> OPEN -> HALF-OPEN -> CLOSED
package health

import "time"

// Default configuration values.
const (
	DefaultFailureThreshold = 5     // consecutive failures to open circuit
	DefaultOpenDurationMS   = 30000 // 30 seconds before half-open
	DefaultHalfOpenRequests = 3     // trial requests allowed in half-open state
)

// CircuitBreakerConfig defines circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening the circuit.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold" toml:"failure_threshold"`

	// OpenDurationMS is how long the circuit stays open before admitting trial requests.
	// Default: 30000 (30 seconds)
	OpenDurationMS int `yaml:"open_duration_ms" toml:"open_duration_ms"`

	// HalfOpenRequests is the number of trial requests allowed in half-open state.
	// Default: 3
	HalfOpenRequests int `yaml:"half_open_requests" toml:"half_open_requests"`
}

// GetFailureThreshold returns the configured failure threshold or default 5.
func (c *CircuitBreakerConfig) GetFailureThreshold() int {
	if c.FailureThreshold <= 0 {
		return DefaultFailureThreshold
	}
	return c.FailureThreshold
}

// GetOpenDuration returns the open duration as time.Duration.
// Returns default 30s if not set or negative.
func (c *CircuitBreakerConfig) GetOpenDuration() time.Duration {
	if c.OpenDurationMS <= 0 {
		return time.Duration(DefaultOpenDurationMS) * time.Millisecond
	}
	return time.Duration(c.OpenDurationMS) * time.Millisecond
}

// GetHalfOpenRequests returns the configured half-open requests or default 3.
func (c *CircuitBreakerConfig) GetHalfOpenRequests() int {
	if c.HalfOpenRequests <= 0 {
		return DefaultHalfOpenRequests
	}
	return c.HalfOpenRequests
}

// Config is the health section of the itemdesk configuration.
type Config struct {
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" toml:"circuit_breaker"`
}
