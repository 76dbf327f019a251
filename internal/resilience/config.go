package resilience

import "time"

// Breaker defaults. A capture backend that failed this many consecutive times
// is most likely blocked by a revoked screen-recording permission, so it is
// bypassed until the reset timeout elapses.
const (
	DefaultThreshold         = 3
	DefaultResetTimeout      = 5 * time.Minute
	DefaultHalfOpenSuccesses = 1
)

// Config holds circuit breaker settings.
type Config struct {
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
	Clock             func() time.Time
}

// DefaultConfig returns the settings used for the primary capture backend.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
