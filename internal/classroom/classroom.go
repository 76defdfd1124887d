// Package classroom keeps the mock collections that surround the lesson
// explorer: announcements, chat rooms, direct messages and the faculty and
// learner rosters. Each collection is one value in the store.
package classroom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-lms/internal/store"
)

var (
	// ErrNotFound is returned for unknown rooms and roster members.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned when a required field is missing.
	ErrInvalid = errors.New("invalid input")
)

// Service reads and writes the classroom collections.
type Service struct {
	store store.Store
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDs sets the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// New creates a service over s.
func New(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// update loads a collection, lets fn change it and saves the result. fn's
// error aborts without writing.
func update[T any](ctx context.Context, s *Service, c store.Collection, fn func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v T
	if err := c.Load(ctx, s.store, &v); err != nil {
		return fmt.Errorf("loading %s: %w", c.Key, err)
	}
	if err := fn(&v); err != nil {
		return err
	}
	if err := c.Save(ctx, s.store, v); err != nil {
		return err
	}
	return nil
}

func load[T any](ctx context.Context, s *Service, c store.Collection) (T, error) {
	var v T
	if err := c.Load(ctx, s.store, &v); err != nil {
		return v, fmt.Errorf("loading %s: %w", c.Key, err)
	}
	return v, nil
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	return nil
}
