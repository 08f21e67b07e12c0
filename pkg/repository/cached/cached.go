// Package cached wraps a repository.Store with an in-memory read-through
// cache for lookups by key and full listings.
package cached

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

const allKey = "all"

// Store caches GetByID and GetAll results of the wrapped store. Every write
// empties the cache before and after it reaches the wrapped store, whether
// or not it succeeded. Missing entities are not cached.
//
// A read that overlaps a write is returned to its caller but not cached, so
// a stale value cannot outlive the write that replaced it.
//
// Writes made through a repository bound to a unit of work only become
// visible on SaveChanges, after this decorator has already invalidated.
// Call Invalidate once SaveChanges returns.
type Store[T any, K comparable] struct {
	repository.Store[T, K]
	c *gocache.Cache

	mu  sync.Mutex
	gen uint64
}

// New wraps store with a cache whose entries expire after ttl.
func New[T any, K comparable](store repository.Store[T, K], ttl time.Duration) *Store[T, K] {
	return &Store[T, K]{
		Store: store,
		c:     gocache.New(ttl, 2*ttl),
	}
}

// Unwrap returns the underlying store.
func (s *Store[T, K]) Unwrap() repository.Store[T, K] {
	return s.Store
}

// Len reports how many entries are cached.
func (s *Store[T, K]) Len() int {
	return s.c.ItemCount()
}

// Invalidate empties the cache and discards the results of reads still in
// flight.
func (s *Store[T, K]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.c.Flush()
}

func (s *Store[T, K]) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// set caches v unless an invalidation happened since gen was read.
func (s *Store[T, K]) set(gen uint64, key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.c.SetDefault(key, v)
	}
}

// write runs fn between two invalidations.
func (s *Store[T, K]) write(fn func() error) error {
	s.Invalidate()
	defer s.Invalidate()
	return fn()
}

func idKey[K comparable](id K) string {
	return fmt.Sprintf("id:%v", id)
}

func (s *Store[T, K]) GetByID(ctx context.Context, id K) (*T, error) {
	if v, ok := s.c.Get(idKey(id)); ok {
		entity := v.(T)
		return &entity, nil
	}
	gen := s.generation()
	entity, err := s.Store.GetByID(ctx, id)
	if err != nil || entity == nil {
		return entity, err
	}
	s.set(gen, idKey(id), *entity)
	return entity, nil
}

// GetByIDWithTracking bypasses the cache when tracking is requested.
func (s *Store[T, K]) GetByIDWithTracking(ctx context.Context, id K, tracking bool) (*T, error) {
	if tracking {
		return s.Store.GetByIDWithTracking(ctx, id, tracking)
	}
	return s.GetByID(ctx, id)
}

func (s *Store[T, K]) GetAll(ctx context.Context) ([]T, error) {
	if v, ok := s.c.Get(allKey); ok {
		return append([]T{}, v.([]T)...), nil
	}
	gen := s.generation()
	entities, err := s.Store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.set(gen, allKey, append([]T{}, entities...))
	return entities, nil
}

func (s *Store[T, K]) Add(ctx context.Context, entity *T) error {
	return s.write(func() error { return s.Store.Add(ctx, entity) })
}

func (s *Store[T, K]) Update(ctx context.Context, entity *T) error {
	return s.write(func() error { return s.Store.Update(ctx, entity) })
}

func (s *Store[T, K]) Delete(ctx context.Context, entity *T) error {
	return s.write(func() error { return s.Store.Delete(ctx, entity) })
}

func (s *Store[T, K]) DeleteByID(ctx context.Context, id K) error {
	return s.write(func() error { return s.Store.DeleteByID(ctx, id) })
}

func (s *Store[T, K]) AddRange(ctx context.Context, entities []*T) error {
	return s.write(func() error { return s.Store.AddRange(ctx, entities) })
}

func (s *Store[T, K]) UpdateRange(ctx context.Context, entities []*T) error {
	return s.write(func() error { return s.Store.UpdateRange(ctx, entities) })
}

func (s *Store[T, K]) DeleteRange(ctx context.Context, entities []*T) error {
	return s.write(func() error { return s.Store.DeleteRange(ctx, entities) })
}

func (s *Store[T, K]) DeleteWhere(ctx context.Context, filter repository.Filter) (n int64, err error) {
	err = s.write(func() error {
		n, err = s.Store.DeleteWhere(ctx, filter)
		return err
	})
	return n, err
}
