package repository

import (
	"context"
)

// ReadOnly wraps a Store and rejects writes while read-only mode is active.
//
// The mode is decided on every call by isReadOnly, so an application can
// toggle maintenance windows without rebuilding its stores. Reads always
// pass through.
type ReadOnly[T any, K comparable] struct {
	Store[T, K]
	isReadOnly func() bool
}

// NewReadOnly wraps store. A nil isReadOnly means always read-only.
func NewReadOnly[T any, K comparable](store Store[T, K], isReadOnly func() bool) *ReadOnly[T, K] {
	if isReadOnly == nil {
		isReadOnly = func() bool { return true }
	}
	return &ReadOnly[T, K]{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store.
func (r *ReadOnly[T, K]) Unwrap() Store[T, K] {
	return r.Store
}

func (r *ReadOnly[T, K]) checkReadOnly() error {
	if r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (r *ReadOnly[T, K]) Add(ctx context.Context, entity *T) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Add(ctx, entity)
}

func (r *ReadOnly[T, K]) Update(ctx context.Context, entity *T) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Update(ctx, entity)
}

func (r *ReadOnly[T, K]) Delete(ctx context.Context, entity *T) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Delete(ctx, entity)
}

func (r *ReadOnly[T, K]) DeleteByID(ctx context.Context, id K) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteByID(ctx, id)
}

func (r *ReadOnly[T, K]) AddRange(ctx context.Context, entities []*T) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.AddRange(ctx, entities)
}

func (r *ReadOnly[T, K]) UpdateRange(ctx context.Context, entities []*T) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateRange(ctx, entities)
}

func (r *ReadOnly[T, K]) DeleteRange(ctx context.Context, entities []*T) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteRange(ctx, entities)
}

func (r *ReadOnly[T, K]) DeleteWhere(ctx context.Context, filter Filter) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.DeleteWhere(ctx, filter)
}
