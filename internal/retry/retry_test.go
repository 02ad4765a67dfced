package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipforge/internal/retry"
	"clipforge/internal/services"
)

func noSleep(t *testing.T, slept *[]time.Duration) retry.Option {
	t.Helper()
	return retry.WithSleeper(func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	})
}

func noJitter() retry.Option {
	return retry.WithJitter(func(time.Duration) time.Duration { return 0 })
}

func TestRunSucceedsFirstTry(t *testing.T) {
	var slept []time.Duration
	got, err := retry.Run(context.Background(), retry.Policy{MaxAttempts: 3},
		func(context.Context) (string, error) { return "ok", nil },
		noSleep(t, &slept), noJitter(),
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected result: %q", got)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", slept)
	}
}

func TestRunRetriesTransientThenSucceeds(t *testing.T) {
	var slept []time.Duration
	calls := 0
	got, err := retry.Run(context.Background(),
		retry.Policy{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 10 * time.Second},
		func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, services.Wrap(services.ErrTransient, "test", "op", "not yet", nil)
			}
			return 42, nil
		},
		noSleep(t, &slept), noJitter(),
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Fatalf("got %d after %d calls", got, calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestRunExhaustsAttemptsWithCount(t *testing.T) {
	var slept []time.Duration
	calls := 0
	transient := services.Wrap(services.ErrTransient, "test", "op", "always", nil)
	_, err := retry.Run(context.Background(),
		retry.Policy{MaxAttempts: 4, BaseDelay: time.Second},
		func(context.Context) (string, error) {
			calls++
			return "", transient
		},
		noSleep(t, &slept), noJitter(),
	)
	if calls != 4 {
		t.Fatalf("expected exactly 4 invocations, got %d", calls)
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 4 {
		t.Fatalf("expected attempt count 4, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error preserved in chain, got %v", err)
	}
	// Three sleeps between four attempts.
	if len(slept) != 3 {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
}

func TestRunSurfacesFatalImmediately(t *testing.T) {
	calls := 0
	fatal := services.Wrap(services.ErrValidation, "test", "op", "bad input", nil)
	_, err := retry.Run(context.Background(), retry.Policy{MaxAttempts: 5},
		func(context.Context) (string, error) {
			calls++
			return "", fatal
		},
	)
	if calls != 1 {
		t.Fatalf("fatal error should not be retried, got %d calls", calls)
	}
	if !errors.Is(err, fatal) {
		t.Fatalf("expected original error, got %v", err)
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatal("fatal error must not be wrapped as exhausted")
	}
}

func TestRunCapsDelayAtMax(t *testing.T) {
	var slept []time.Duration
	_, _ = retry.Run(context.Background(),
		retry.Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second},
		func(context.Context) (string, error) {
			return "", services.Wrap(services.ErrTransient, "test", "op", "always", nil)
		},
		noSleep(t, &slept), noJitter(),
	)
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestRunStopsWhenContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retry.Run(ctx, retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(context.Context) (string, error) {
			calls++
			cancel()
			return "", services.Wrap(services.ErrTransient, "test", "op", "always", nil)
		},
	)
	if calls != 1 {
		t.Fatalf("expected one call before cancellation, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunDefaultJitterStaysBelowDelay(t *testing.T) {
	var slept []time.Duration
	_, _ = retry.Run(context.Background(),
		retry.Policy{MaxAttempts: 2, BaseDelay: 100 * time.Millisecond},
		func(context.Context) (string, error) {
			return "", services.Wrap(services.ErrTransient, "test", "op", "always", nil)
		},
		noSleep(t, &slept),
	)
	if len(slept) != 1 {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
	if slept[0] < 100*time.Millisecond || slept[0] >= 200*time.Millisecond {
		t.Fatalf("delay with jitter out of range: %v", slept[0])
	}
}
