package collection

import (
	"github.com/samber/lo"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// ErrInvalidPage is returned for page indexes or sizes below one.
var ErrInvalidPage = repository.ErrInvalidPage

// Page is one page of a larger sequence.
type Page[T any] struct {
	Items       []T   `json:"items"`
	PageIndex   int   `json:"pageIndex"`
	PageSize    int   `json:"pageSize"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPrevious"`
	HasNext     bool  `json:"hasNext"`
}

// NewPage describes items as page pageIndex of a sequence of total items.
func NewPage[T any](items []T, pageIndex, pageSize int, total int64) Page[T] {
	pages := 0
	if pageSize > 0 {
		size := int64(pageSize)
		pages = int(total / size)
		if total%size != 0 {
			pages++
		}
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		PageIndex:   pageIndex,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  pages,
		HasPrevious: pageIndex > 1,
		HasNext:     pageIndex < pages,
	}
}

// Paginate returns page pageIndex (1-based) of items. A page past the end
// is empty.
func Paginate[T any](items []T, pageIndex, pageSize int) (Page[T], error) {
	offset, err := repository.PageOffset(pageIndex, pageSize)
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(lo.Subset(items, offset, uint(pageSize)), pageIndex, pageSize, int64(len(items))), nil
}

// Where keeps the items matching pred. A nil pred keeps everything.
func Where[T any](items []T, pred func(T) bool) []T {
	if pred == nil {
		return append([]T{}, items...)
	}
	return lo.Filter(items, func(item T, _ int) bool {
		return pred(item)
	})
}

// Select projects every item through fn.
func Select[T, R any](items []T, fn func(T) R) []R {
	return lo.Map(items, func(item T, _ int) R {
		return fn(item)
	})
}

// FirstOrNone returns the first item, or the zero value and false for an
// empty slice.
func FirstOrNone[T any](items []T) (T, bool) {
	return lo.First(items)
}

// ForEach calls fn for every item in order.
func ForEach[T any](items []T, fn func(T)) {
	lo.ForEach(items, func(item T, _ int) {
		fn(item)
	})
}

// DistinctBy keeps the first item seen for every key.
func DistinctBy[T any, K comparable](items []T, key func(T) K) []T {
	return lo.UniqBy(items, key)
}

// Shuffle returns the items in random order.
func Shuffle[T any](items []T) []T {
	return lo.Shuffle(append([]T{}, items...))
}

// GroupBySelect groups items by key and projects every group through
// result. Groups come out in the order their keys first appear.
func GroupBySelect[T any, K comparable, R any](items []T, key func(T) K, result func(K, []T) R) []R {
	groups := lo.GroupBy(items, key)
	keys := lo.Uniq(lo.Map(items, func(item T, _ int) K {
		return key(item)
	}))
	return lo.Map(keys, func(k K, _ int) R {
		return result(k, groups[k])
	})
}
