package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Policy configures bounded exponential backoff for one category of external
// call. Policies are stateless and safe to share across goroutines.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable classifies an error as transient. Defaults to
	// services.IsTransient when nil.
	Retryable func(error) bool
}

// Operation is one fallible external call.
type Operation[T any] func(ctx context.Context) (T, error)

// ExhaustedError wraps the last failure after all attempts were consumed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type settings struct {
	logger  *slog.Logger
	sleeper func(context.Context, time.Duration) error
	jitter  func(time.Duration) time.Duration
}

// Option customizes a Run invocation.
type Option func(*settings)

// WithLogger attaches a logger that receives one event per attempt.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(s *settings) {
		if sleeper != nil {
			s.sleeper = sleeper
		}
	}
}

// WithJitter overrides the jitter function (useful for tests).
func WithJitter(jitter func(time.Duration) time.Duration) Option {
	return func(s *settings) {
		if jitter != nil {
			s.jitter = jitter
		}
	}
}

// Run executes op under the supplied policy. Transient errors are retried
// with delay min(base*2^(attempt-1), max) plus random jitter in [0, delay);
// any other error surfaces immediately with its original detail. After the
// final attempt the last error is wrapped in an ExhaustedError carrying the
// attempt count.
func Run[T any](ctx context.Context, policy Policy, op Operation[T], opts ...Option) (T, error) {
	var zero T

	s := settings{
		logger:  logging.NewNop(),
		sleeper: sleepContext,
		jitter:  defaultJitter,
	}
	for _, opt := range opts {
		opt(&s)
	}

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = services.IsTransient
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				s.logger.Info("operation recovered",
					logging.Int("attempt", attempt),
					logging.Int("max_attempts", attempts),
				)
			}
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			s.logger.Warn("operation failed, not retryable",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := backoffDelay(policy, attempt)
		delay += s.jitter(delay)
		s.logger.Warn("operation failed, retrying",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := s.sleeper(ctx, delay); err != nil {
			return zero, err
		}
	}

	s.logger.Error("operation failed, attempts exhausted",
		logging.Int("attempts", attempts),
		logging.Error(lastErr),
	)
	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func backoffDelay(policy Policy, attempt int) time.Duration {
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if policy.MaxDelay > 0 && delay >= policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}

func defaultJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
