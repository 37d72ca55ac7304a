package catalog

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int

const (
	// CircuitClosed allows source reads to pass through.
	CircuitClosed CircuitBreakerState = iota

	// CircuitOpen rejects source reads immediately.
	CircuitOpen

	// CircuitHalfOpen allows trial reads to check if the sources have recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit breaker state.
func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int

	// ResetTimeout is how long to wait before allowing trial reads.
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of trial reads admitted while half-open,
	// and the number of successes needed to close again.
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker guards the external catalog sources. Context cancellation is
// not counted as a failure.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	trialCount      int
	lastFailureTime time.Time
	config          *CircuitBreakerConfig
	metrics         *MetricsRecorder
	logger          *zerolog.Logger
	name            string
	now             func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, config *CircuitBreakerConfig, metrics *MetricsRecorder, logger *zerolog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	return &CircuitBreaker{
		state:   CircuitClosed,
		config:  config,
		metrics: metrics,
		logger:  logger,
		name:    name,
		now:     time.Now,
	}
}

// Allow returns true if a read should be attempted.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.transitionTo(CircuitHalfOpen)
			cb.successCount = 0
			cb.trialCount = 1
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Msg("Circuit breaker transitioning to half-open")
			return true
		}
		return false

	case CircuitHalfOpen:
		if cb.trialCount >= cb.config.HalfOpenMaxCalls {
			return false
		}
		cb.trialCount++
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful read.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0

	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(CircuitClosed)
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Int("success_count", cb.successCount).
				Msg("Circuit breaker closing after successful recovery")
			cb.successCount = 0
			cb.trialCount = 0
			cb.failureCount = 0
		}
	}
}

// Release gives back an admitted read that ended without a verdict, such as a
// cancelled request. Only half-open trials are affected.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen && cb.trialCount > cb.successCount {
		cb.trialCount--
	}
}

// RecordFailure records a failed read.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	cb.logger.Error().
		Err(err).
		Str("circuit_breaker", cb.name).
		Int("failure_count", cb.failureCount).
		Msg("Circuit breaker recording failure")

	switch cb.state {
	case CircuitClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.transitionTo(CircuitOpen)
			cb.logger.Warn().
				Str("circuit_breaker", cb.name).
				Int("failure_count", cb.failureCount).
				Dur("reset_timeout", cb.config.ResetTimeout).
				Msg("Circuit breaker opening after max failures")
		}

	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
		cb.logger.Warn().
			Str("circuit_breaker", cb.name).
			Msg("Circuit breaker re-opening after failure in half-open state")
		cb.successCount = 0
		cb.trialCount = 0
	}
}

func (cb *CircuitBreaker) transitionTo(newState CircuitBreakerState) {
	cb.state = newState
	if cb.metrics != nil {
		cb.metrics.RecordBreakerState(newState)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionTo(CircuitClosed)
	cb.failureCount = 0
	cb.successCount = 0
	cb.trialCount = 0

	cb.logger.Info().
		Str("circuit_breaker", cb.name).
		Msg("Circuit breaker manually reset to closed state")
}
