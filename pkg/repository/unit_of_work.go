package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// UnitOfWork coordinates one commit boundary across the repositories that
// share its connection.
type UnitOfWork interface {
	// SaveChanges persists every staged change atomically and returns how
	// many were persisted.
	SaveChanges(ctx context.Context) (int, error)

	// Rollback discards staged changes that have not been saved.
	Rollback()

	// Close discards staged changes and releases the unit of work. Later
	// calls fail with ErrClosed.
	Close() error
}

// Factory creates a unit of work on first use.
type Factory[U UnitOfWork] func(ctx context.Context) (U, error)

// Manager hands out one unit of work per registered name, creating it lazily
// and caching it until Close.
type Manager[U UnitOfWork] struct {
	mu        sync.Mutex
	factories map[string]Factory[U]
	units     map[string]U
	log       zerolog.Logger
}

// NewManager returns an empty Manager logging to log.
func NewManager[U UnitOfWork](log zerolog.Logger) *Manager[U] {
	return &Manager[U]{
		factories: make(map[string]Factory[U]),
		units:     make(map[string]U),
		log:       log,
	}
}

// Register adds or replaces the factory for name. A cached unit of work for
// name is kept until Close.
func (m *Manager[U]) Register(name string, factory Factory[U]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = factory
}

// Get returns the unit of work registered under name, creating it on first
// use.
func (m *Manager[U]) Get(ctx context.Context, name string) (U, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uow, ok := m.units[name]; ok {
		return uow, nil
	}

	var zero U
	factory, ok := m.factories[name]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	uow, err := factory(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to create unit of work %q: %w", name, err)
	}
	m.units[name] = uow
	m.log.Debug().Str("unit_of_work", name).Msg("unit of work created")
	return uow, nil
}

// Names lists the registered names in sorted order.
func (m *Manager[U]) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.factories))
	for name := range m.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every cached unit of work and forgets them. Factories stay
// registered, so Get creates fresh units afterwards.
func (m *Manager[U]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, uow := range m.units {
		if err := uow.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close unit of work %q: %w", name, err))
		}
		m.log.Debug().Str("unit_of_work", name).Msg("unit of work closed")
	}
	m.units = make(map[string]U)
	return errors.Join(errs...)
}
