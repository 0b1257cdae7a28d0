// Package inventory implements the truck listing repository on top of the
// JSON document store: slug ids, uniqueness checks, partial updates, toggles,
// the public filter chain, and the site settings and about page singletons.
//
// Every mutation is a full read → modify → write cycle against the store with
// no locking. Two overlapping mutations both succeed and the later write
// silently discards the earlier one.
package inventory

import (
	"log/slog"
	"time"

	"github.com/bhbtrucksales/storefront/internal/storage"
)

// Service is the truck repository.
type Service struct {
	store  storage.DocumentStore
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for dateAdded/lastModified stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the audit logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a repository over store.
func NewService(store storage.DocumentStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
