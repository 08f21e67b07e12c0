package collection

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"
)

var (
	// ErrUnknownField is returned when the sort field does not exist.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnsortableField is returned when the sort field has no ordering.
	ErrUnsortableField = errors.New("field cannot be ordered")
)

var timeType = reflect.TypeOf(time.Time{})

// SortBy returns items stably sorted by the exported field name. Items may
// be structs or pointers to structs; nil pointers sort first. An empty name
// returns a copy of items in the same order.
func SortBy[T any](items []T, field string, desc bool) ([]T, error) {
	sorted := append([]T{}, items...)
	if field == "" {
		return sorted, nil
	}

	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnknownField, typ)
	}
	sf, ok := typ.FieldByName(field)
	if !ok || !sf.IsExported() {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, typ.Name(), field)
	}
	compare, err := comparator(sf.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s", err, typ.Name(), field)
	}

	slices.SortStableFunc(sorted, func(a, b T) int {
		av, aok := fieldValue(reflect.ValueOf(&a).Elem(), sf.Index)
		bv, bok := fieldValue(reflect.ValueOf(&b).Elem(), sf.Index)
		var c int
		switch {
		case !aok && !bok:
			c = 0
		case !aok:
			c = -1
		case !bok:
			c = 1
		default:
			c = compare(av, bv)
		}
		if desc {
			return -c
		}
		return c
	})
	return sorted, nil
}

// fieldValue dereferences v down to the struct and returns the field at
// index, or false when a nil pointer is in the way.
func fieldValue(v reflect.Value, index []int) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	f, err := v.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return f, true
}

func comparator(t reflect.Type) (func(a, b reflect.Value) int, error) {
	if t == timeType {
		return func(a, b reflect.Value) int {
			return a.Interface().(time.Time).Compare(b.Interface().(time.Time))
		}, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }, nil
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }, nil
	case reflect.String:
		return func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) }, nil
	case reflect.Bool:
		return func(a, b reflect.Value) int {
			switch {
			case a.Bool() == b.Bool():
				return 0
			case a.Bool():
				return 1
			}
			return -1
		}, nil
	case reflect.Pointer:
		inner, err := comparator(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(a, b reflect.Value) int {
			switch {
			case a.IsNil() && b.IsNil():
				return 0
			case a.IsNil():
				return -1
			case b.IsNil():
				return 1
			}
			return inner(a.Elem(), b.Elem())
		}, nil
	}
	return nil, ErrUnsortableField
}
