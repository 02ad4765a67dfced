package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clipforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "assemble", "mux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"assemble", "mux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransientMarker(t *testing.T) {
	err := services.Wrap(nil, "broll", "generate", "timeout", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestIsTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient marker", services.Wrap(services.ErrTransient, "s", "op", "m", nil), true},
		{"validation marker", services.Wrap(services.ErrValidation, "s", "op", "m", nil), false},
		{"configuration marker", services.Wrap(services.ErrConfiguration, "s", "op", "m", nil), false},
		{"dependency marker", services.Wrap(services.ErrStageDependency, "s", "op", "m", nil), false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"rate limited", &services.StatusError{StatusCode: 429}, true},
		{"server error", &services.StatusError{StatusCode: 503}, true},
		{"client error", &services.StatusError{StatusCode: 400}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestStatusErrorTruncatesBody(t *testing.T) {
	err := &services.StatusError{StatusCode: 500, Body: strings.Repeat("x", 500)}
	if len(err.Error()) > 250 {
		t.Fatalf("expected truncated message, got %d chars", len(err.Error()))
	}
}
