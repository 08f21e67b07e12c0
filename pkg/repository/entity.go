package repository

import (
	"fmt"
	"reflect"
)

// Identifiable is implemented by entities that expose their own key.
type Identifiable[K comparable] interface {
	EntityID() K
}

// EntityName returns the Go type name of T, dereferencing pointers.
func EntityName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// IDOf returns the key of entity. Entities implementing Identifiable are asked
// directly; otherwise the struct field named ID (or Id) is read.
func IDOf[K comparable](entity any) (K, error) {
	var zero K
	if entity == nil {
		return zero, ErrNilEntity
	}
	if e, ok := entity.(Identifiable[K]); ok {
		return e.EntityID(), nil
	}

	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return zero, ErrNilEntity
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return zero, fmt.Errorf("%w: %s is not a struct", ErrNoID, v.Type())
	}

	for _, name := range []string{"ID", "Id"} {
		f := v.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			continue
		}
		id, ok := f.Interface().(K)
		if !ok {
			return zero, fmt.Errorf("%w: field %s of %s is %s, not %T", ErrNoID, name, v.Type(), f.Type(), zero)
		}
		return id, nil
	}
	return zero, fmt.Errorf("%w: %s has no ID field", ErrNoID, v.Type())
}

// IDsOf collects the keys of entities, failing on the first nil entity or
// missing key.
func IDsOf[T any, K comparable](entities []*T) ([]K, error) {
	ids := make([]K, 0, len(entities))
	for _, e := range entities {
		if e == nil {
			return nil, ErrNilEntity
		}
		id, err := IDOf[K](e)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CheckEntities returns ErrNilEntity if any element is nil.
func CheckEntities[T any](entities []*T) error {
	for _, e := range entities {
		if e == nil {
			return ErrNilEntity
		}
	}
	return nil
}
