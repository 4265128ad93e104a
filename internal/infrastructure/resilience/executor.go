package resilience

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

var errNilOperation = errors.New("resilience: operation callback is nil")

// ErrorClassification tells the executor what to do with a failed attempt.
// RecordFailure=false keeps the error away from the breaker counts.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// StateListener is told about every circuit breaker transition.
type StateListener func(operation string, from, to gobreaker.State)

// Executor runs outbound calls with bounded retries behind one breaker per
// operation name ("gateway.chat", "nats.publish", "resend.send").
type Executor struct {
	cfg      Config
	listener StateListener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: map[string]*gobreaker.CircuitBreaker[any]{},
	}
}

// WithStateListener must be set before the first Execute call.
func (e *Executor) WithStateListener(listener StateListener) *Executor {
	e.listener = listener
	return e
}

func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	if fn == nil {
		return errNilOperation
	}
	if classifier == nil {
		classifier = failFast
	}
	op := operationName(operation)

	attempts := func() error {
		return e.retry(ctx, op, fn, classifier)
	}
	if !e.cfg.BreakerEnabled {
		return attempts()
	}
	_, err := e.breaker(op, classifier).Execute(func() (any, error) {
		return nil, attempts()
	})
	return err
}

// Call runs fn through the executor and returns its value. A nil executor
// calls fn once.
func Call[T any](
	ctx context.Context,
	e *Executor,
	operation string,
	fn func(context.Context) (T, error),
	classifier ErrorClassifier,
) (T, error) {
	var out T
	attempt := func(ctx context.Context) error {
		value, err := fn(ctx)
		if err != nil {
			return err
		}
		out = value
		return nil
	}
	if e == nil {
		return out, attempt(ctx)
	}
	return out, e.Execute(ctx, operation, attempt, classifier)
}

// retry returns the last error once attempts run out, the error is not
// retryable or ctx ends while waiting.
func (e *Executor) retry(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	delay := e.cfg.RetryInitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= e.cfg.RetryMaxAttempts || !classifier(err).Retryable {
			return err
		}

		wait := min(delay, e.cfg.RetryMaxBackoff)
		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if !sleep(ctx, wait) {
			return err
		}
		delay = e.cfg.nextBackoff(delay)
	}
}

func (e *Executor) breaker(operation string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	cb, ok := e.breakers[operation]
	if !ok {
		cb = gobreaker.NewCircuitBreaker[any](e.breakerSettings(operation, classifier))
		e.breakers[operation] = cb
	}
	return cb
}

func (e *Executor) breakerSettings(operation string, classifier ErrorClassifier) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: e.cfg.shouldTrip,
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
			if e.listener != nil {
				e.listener(name, from, to)
			}
		},
	}
}

// IsCircuitOpen reports a call rejected by an open or saturated half-open
// breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func operationName(operation string) string {
	if op := strings.TrimSpace(operation); op != "" {
		return op
	}
	return "unknown"
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// failFast is used when the caller passes no classifier.
func failFast(error) ErrorClassification {
	return ErrorClassification{RecordFailure: true}
}
