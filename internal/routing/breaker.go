package routing

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// breakerState represents the state of the routing circuit breaker.
type breakerState int

const (
	// breakerClosed allows requests to pass through.
	breakerClosed breakerState = iota

	// breakerOpen skips the routing service and lets the caller use
	// geodesic estimates immediately.
	breakerOpen

	// breakerHalfOpen allows a test request to check recovery.
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the routing circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int

	// ResetTimeout is how long to wait before a half-open probe.
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of calls allowed in half-open state.
	HalfOpenMaxCalls int
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// breaker guards the external routing service. An open circuit is not an
// error condition for callers: they fall back to geodesic estimates.
type breaker struct {
	mu              sync.Mutex
	state           breakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	config          *BreakerConfig
	logger          zerolog.Logger
}

func newBreaker(config *BreakerConfig, logger zerolog.Logger) *breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	return &breaker{
		state:  breakerClosed,
		config: config,
		logger: logger,
	}
}

// allow reports whether a routing request should be attempted.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(b.lastFailureTime) >= b.config.ResetTimeout {
			b.state = breakerHalfOpen
			b.successCount = 0
			b.logger.Info().Msg("Routing circuit breaker transitioning to half-open")
			return true
		}
		return false
	case breakerHalfOpen:
		return b.successCount < b.config.HalfOpenMaxCalls
	default:
		return false
	}
}

// recordSuccess records a successful routing call.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		b.failureCount = 0
	case breakerHalfOpen:
		b.successCount++
		if b.successCount >= b.config.HalfOpenMaxCalls {
			b.state = breakerClosed
			b.failureCount = 0
			b.successCount = 0
			b.logger.Info().Msg("Routing circuit breaker closing after recovery")
		}
	}
}

// recordFailure records a failed routing call.
func (b *breaker) recordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case breakerClosed:
		if b.failureCount >= b.config.MaxFailures {
			b.state = breakerOpen
			b.logger.Warn().
				Err(err).
				Int("failures", b.failureCount).
				Dur("reset_timeout", b.config.ResetTimeout).
				Msg("Routing circuit breaker opening")
		}
	case breakerHalfOpen:
		b.state = breakerOpen
		b.successCount = 0
		b.logger.Warn().Err(err).Msg("Routing circuit breaker re-opening after half-open failure")
	}
}

// currentState returns the breaker state for health reporting.
func (b *breaker) currentState() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
