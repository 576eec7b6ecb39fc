package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Call while the breaker is rejecting calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"` // Consecutive failures before opening
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`  // Time to wait before a trial call
	SuccessThreshold int           `json:"success_threshold"` // Successes in half-open needed to close
}

// CircuitBreaker guards calls to the remote model endpoint
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	successes   int
	nextAttempt time.Time
	opens       int64
	probing     bool // a half-open trial call is in flight
}

// NewCircuitBreaker creates a new circuit breaker, filling zero config values with defaults
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}

	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Call executes fn unless the breaker is open
func (cb *CircuitBreaker) Call(fn func() error) error {
	return cb.CallContext(context.Background(), fn)
}

// CallContext executes fn unless the breaker is open. A failure that happens
// after ctx is done, or that is a cancellation, belongs to the caller and is
// not counted against the upstream.
func (cb *CircuitBreaker) CallContext(ctx context.Context, fn func() error) error {
	trial, ok := cb.allow()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn()
	switch {
	case err == nil:
		cb.onSuccess(trial)
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		cb.onAbandon(trial)
	default:
		cb.onFailure(trial)
	}
	return err
}

// allow admits a call. In half-open only one trial call is admitted at a time.
func (cb *CircuitBreaker) allow() (trial bool, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return false, true
	case StateOpen:
		if cb.now().Before(cb.nextAttempt) {
			return false, false
		}
		cb.state = StateHalfOpen
		cb.successes = 0
	}

	if cb.probing {
		return false, false
	}
	cb.probing = true
	return true, true
}

func (cb *CircuitBreaker) onFailure(trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.probing = false
	}
	cb.failures++
	cb.successes = 0

	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.config.FailureThreshold) {
		cb.state = StateOpen
		cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
		cb.opens++
	}
}

func (cb *CircuitBreaker) onSuccess(trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.probing = false
	}
	cb.failures = 0

	if cb.state == StateHalfOpen && trial {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
		}
	}
}

// onAbandon frees the trial slot without changing state
func (cb *CircuitBreaker) onAbandon(trial bool) {
	if !trial {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot for the health endpoint
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":    cb.state.String(),
		"failures": cb.failures,
		"opens":    cb.opens,
	}
}
