// Package testutil provides shared test helpers for setting up data stores and clocks.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bhbtrucksales/storefront/internal/storage"
)

// Epoch is the default starting point for test clocks.
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock is a manually advanced time source safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock fixed at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates a bootstrapped JSONStore in a temporary data directory.
func TestStore(t *testing.T, clock *Clock) (string, *storage.JSONStore) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewJSONStore(dataDir, "trucks.json",
		storage.WithClock(clock.Now),
		storage.WithLogger(Logger()),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	return dataDir, store
}
