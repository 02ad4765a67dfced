package testsupport

import (
	"context"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/state"
)

// MustOpenStore opens a state.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *state.Store {
	t.Helper()

	store, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewUnit creates a work unit for tests using the provided store.
func NewUnit(t testing.TB, store *state.Store, topic string) *state.Unit {
	t.Helper()

	unit, err := store.CreateUnit(context.Background(), topic)
	if err != nil {
		t.Fatalf("store.CreateUnit: %v", err)
	}
	return unit
}
