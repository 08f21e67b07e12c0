package repository

import (
	"context"
	"math"
)

// ReadOnlyRepository provides filter based reads for entities of type T.
type ReadOnlyRepository[T any] interface {
	// Get returns the first entity matching filter.
	// It returns (nil, nil) when nothing matches.
	Get(ctx context.Context, filter Filter) (*T, error)

	// List returns every entity matching filter. A nil filter lists all
	// entities.
	List(ctx context.Context, filter Filter) ([]T, error)
}

// Repository provides identity based CRUD for entities of type T keyed by K.
//
// Add, Update and Delete reject a nil entity with ErrNilEntity.
type Repository[T any, K comparable] interface {
	// GetByID returns the entity with the given key, or (nil, nil) if it
	// does not exist.
	GetByID(ctx context.Context, id K) (*T, error)

	GetAll(ctx context.Context) ([]T, error)

	// Add inserts entity. Backends that generate keys write them back into
	// entity.
	Add(ctx context.Context, entity *T) error

	// Update replaces the stored entity sharing entity's key.
	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, entity *T) error

	// DeleteByID removes the entity with the given key. Deleting a missing
	// key is not an error.
	DeleteByID(ctx context.Context, id K) error
}

// BulkRepository provides range writes. Empty slices are no-ops; nil
// elements are rejected with ErrNilEntity before anything is written.
type BulkRepository[T any] interface {
	AddRange(ctx context.Context, entities []*T) error
	UpdateRange(ctx context.Context, entities []*T) error
	DeleteRange(ctx context.Context, entities []*T) error

	// DeleteWhere removes every entity matching filter and reports how many
	// were removed. Backends that stage writes report zero until the
	// owning unit of work saves.
	DeleteWhere(ctx context.Context, filter Filter) (int64, error)
}

// QueryRepository provides querying, sorting and paging.
type QueryRepository[T any, K comparable] interface {
	Find(ctx context.Context, filter Filter) ([]T, error)

	// FindWithTracking is Find with an explicit change-tracking hint.
	// Backends without change tracking ignore the hint.
	FindWithTracking(ctx context.Context, filter Filter, tracking bool) ([]T, error)

	GetByIDWithTracking(ctx context.Context, id K, tracking bool) (*T, error)

	// GetSorted returns all entities ordered by field. The field name is
	// the stored (column or document) name.
	GetSorted(ctx context.Context, field string, desc bool) ([]T, error)

	// GetPaged returns the 1-based page pageIndex holding at most pageSize
	// entities. It fails with ErrInvalidPage when either argument is below
	// one.
	GetPaged(ctx context.Context, pageIndex, pageSize int) ([]T, error)

	Count(ctx context.Context, filter Filter) (int64, error)
	Exists(ctx context.Context, filter Filter) (bool, error)
}

// Store is the full repository contract implemented by every backend
// adapter.
type Store[T any, K comparable] interface {
	ReadOnlyRepository[T]
	Repository[T, K]
	BulkRepository[T]
	QueryRepository[T, K]
}

// PageOffset converts a 1-based page index and a page size into the number of
// entities to skip. Pages whose offset does not fit in an int are invalid.
func PageOffset(pageIndex, pageSize int) (int, error) {
	if pageIndex < 1 || pageSize < 1 || pageIndex-1 > math.MaxInt/pageSize {
		return 0, invalidPage(pageIndex, pageSize)
	}
	return (pageIndex - 1) * pageSize, nil
}
