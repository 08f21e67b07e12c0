package repository

import (
	"reflect"
	"sync"
)

// Registry caches one repository per repository type. Units of work use it so
// that asking twice for the repository of an entity yields the same
// instance.
type Registry struct {
	mu    sync.Mutex
	repos map[reflect.Type]any
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{repos: make(map[reflect.Type]any)}
}

// Resolve returns the cached R, calling create the first time R is asked for.
// R is typically a pointer to a generic repository, so each entity and key
// combination gets its own slot. A failed create is not cached.
func Resolve[R any](r *Registry, create func() (R, error)) (R, error) {
	key := reflect.TypeOf((*R)(nil)).Elem()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repos == nil {
		r.repos = make(map[reflect.Type]any)
	}
	if cached, ok := r.repos[key]; ok {
		return cached.(R), nil
	}
	repo, err := create()
	if err != nil {
		return repo, err
	}
	r.repos[key] = repo
	return repo, nil
}

// Len reports how many repositories are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.repos)
}

// Reset drops every cached repository.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repos = make(map[reflect.Type]any)
}
