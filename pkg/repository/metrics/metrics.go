// Package metrics instruments a repository.Store with Prometheus counters
// and latency histograms, labelled by entity and operation.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// Collector holds the metric vectors shared by every instrumented store.
type Collector struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewCollector creates the metric vectors and registers them with reg.
// Vectors already registered under the same names are reused.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repository_operations_total",
				Help:      "Total number of repository operations",
			},
			[]string{"entity", "operation"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repository_errors_total",
				Help:      "Total number of failed repository operations",
			},
			[]string{"entity", "operation", "type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repository_operation_duration_seconds",
				Help:      "Repository operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"entity", "operation"},
		),
	}

	var err error
	if c.operations, err = register(reg, c.operations); err != nil {
		return nil, err
	}
	if c.errors, err = register(reg, c.errors); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (c *Collector) observe(entity, op string, start time.Time, err error) {
	c.operations.WithLabelValues(entity, op).Inc()
	c.duration.WithLabelValues(entity, op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.errors.WithLabelValues(entity, op, repository.TypeOf(err).String()).Inc()
	}
}

// Store records metrics for every call to the wrapped store.
type Store[T any, K comparable] struct {
	repository.Store[T, K]
	c      *Collector
	entity string
}

// Wrap instruments store with c.
func Wrap[T any, K comparable](store repository.Store[T, K], c *Collector) *Store[T, K] {
	return &Store[T, K]{
		Store:  store,
		c:      c,
		entity: repository.EntityName[T](),
	}
}

// Unwrap returns the underlying store.
func (s *Store[T, K]) Unwrap() repository.Store[T, K] {
	return s.Store
}

func (s *Store[T, K]) Get(ctx context.Context, filter repository.Filter) (_ *T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Get", start, err) }(time.Now())
	return s.Store.Get(ctx, filter)
}

func (s *Store[T, K]) List(ctx context.Context, filter repository.Filter) (_ []T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "List", start, err) }(time.Now())
	return s.Store.List(ctx, filter)
}

func (s *Store[T, K]) GetByID(ctx context.Context, id K) (_ *T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "GetByID", start, err) }(time.Now())
	return s.Store.GetByID(ctx, id)
}

func (s *Store[T, K]) GetAll(ctx context.Context) (_ []T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "GetAll", start, err) }(time.Now())
	return s.Store.GetAll(ctx)
}

func (s *Store[T, K]) Add(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Add", start, err) }(time.Now())
	return s.Store.Add(ctx, entity)
}

func (s *Store[T, K]) Update(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Update", start, err) }(time.Now())
	return s.Store.Update(ctx, entity)
}

func (s *Store[T, K]) Delete(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Delete", start, err) }(time.Now())
	return s.Store.Delete(ctx, entity)
}

func (s *Store[T, K]) DeleteByID(ctx context.Context, id K) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "DeleteByID", start, err) }(time.Now())
	return s.Store.DeleteByID(ctx, id)
}

func (s *Store[T, K]) AddRange(ctx context.Context, entities []*T) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "AddRange", start, err) }(time.Now())
	return s.Store.AddRange(ctx, entities)
}

func (s *Store[T, K]) UpdateRange(ctx context.Context, entities []*T) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "UpdateRange", start, err) }(time.Now())
	return s.Store.UpdateRange(ctx, entities)
}

func (s *Store[T, K]) DeleteRange(ctx context.Context, entities []*T) (err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "DeleteRange", start, err) }(time.Now())
	return s.Store.DeleteRange(ctx, entities)
}

func (s *Store[T, K]) DeleteWhere(ctx context.Context, filter repository.Filter) (_ int64, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "DeleteWhere", start, err) }(time.Now())
	return s.Store.DeleteWhere(ctx, filter)
}

func (s *Store[T, K]) Find(ctx context.Context, filter repository.Filter) (_ []T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Find", start, err) }(time.Now())
	return s.Store.Find(ctx, filter)
}

func (s *Store[T, K]) FindWithTracking(ctx context.Context, filter repository.Filter, tracking bool) (_ []T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "FindWithTracking", start, err) }(time.Now())
	return s.Store.FindWithTracking(ctx, filter, tracking)
}

func (s *Store[T, K]) GetByIDWithTracking(ctx context.Context, id K, tracking bool) (_ *T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "GetByIDWithTracking", start, err) }(time.Now())
	return s.Store.GetByIDWithTracking(ctx, id, tracking)
}

func (s *Store[T, K]) GetSorted(ctx context.Context, field string, desc bool) (_ []T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "GetSorted", start, err) }(time.Now())
	return s.Store.GetSorted(ctx, field, desc)
}

func (s *Store[T, K]) GetPaged(ctx context.Context, pageIndex, pageSize int) (_ []T, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "GetPaged", start, err) }(time.Now())
	return s.Store.GetPaged(ctx, pageIndex, pageSize)
}

func (s *Store[T, K]) Count(ctx context.Context, filter repository.Filter) (_ int64, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Count", start, err) }(time.Now())
	return s.Store.Count(ctx, filter)
}

func (s *Store[T, K]) Exists(ctx context.Context, filter repository.Filter) (_ bool, err error) {
	defer func(start time.Time) { s.c.observe(s.entity, "Exists", start, err) }(time.Now())
	return s.Store.Exists(ctx, filter)
}
