package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets loads through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects loads until the reset timeout passes.
	CircuitOpen
	// CircuitHalfOpen lets a single probe through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
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

// ErrCircuitOpen matches, via errors.Is, every load rejected by an open
// circuit.
var ErrCircuitOpen = eris.New("resilience: circuit breaker is open")

// OpenError reports a load rejected because the source's circuit is open.
type OpenError struct {
	Source  string
	RetryIn time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("resilience: %s is failing, next load allowed in %s", e.Source, e.RetryIn.Round(time.Second))
}

// Is makes errors.Is(err, ErrCircuitOpen) hold.
func (e *OpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// BreakerConfig controls when a record source stops being called.
type BreakerConfig struct {
	// Source names the guarded source in errors and logs.
	Source string

	// FailureThreshold is the number of consecutive failures before opening
	// the circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a probe is
	// allowed. Default: 30s.
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit transitions between states.
	// If nil, transitions are logged.
	OnStateChange func(from, to CircuitState)
}

// CircuitBreaker tracks consecutive failures of one source.
type CircuitBreaker struct {
	cfg   BreakerConfig
	mu    sync.Mutex
	state CircuitState

	consecutiveFailures int
	lastFailureTime     time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the given config.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.OnStateChange == nil {
		source := cfg.Source
		cfg.OnStateChange = func(from, to CircuitState) {
			zap.L().Info("source circuit changed",
				zap.String("source", source),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed, nowFunc: time.Now}
}

// ExecuteVal runs fn unless the circuit is open, in which case it returns an
// *OpenError without calling fn. A success closes the
// circuit; a failure counts toward opening it, and a failed probe reopens
// it at once.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.allowRequest(); err != nil {
		return zero, err
	}

	val, err := fn(ctx)
	cb.recordResult(err)
	return val, err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.nowFunc().Sub(cb.lastFailureTime) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) allowRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitOpen {
		return nil
	}
	elapsed := cb.nowFunc().Sub(cb.lastFailureTime)
	if elapsed >= cb.cfg.ResetTimeout {
		cb.transition(CircuitHalfOpen)
		return nil
	}
	return &OpenError{Source: cb.cfg.Source, RetryIn: cb.cfg.ResetTimeout - elapsed}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.consecutiveFailures = 0
		if cb.state != CircuitClosed {
			cb.transition(CircuitClosed)
		}
		return
	}

	cb.consecutiveFailures++
	cb.lastFailureTime = cb.nowFunc()
	if cb.state == CircuitHalfOpen || cb.consecutiveFailures >= cb.cfg.FailureThreshold {
		if cb.state != CircuitOpen {
			cb.transition(CircuitOpen)
		}
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}
