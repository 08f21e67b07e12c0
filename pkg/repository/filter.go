package repository

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Operator is a comparison operator of a Condition.
type Operator string

const (
	OpEq   Operator = "="
	OpNe   Operator = "!="
	OpGt   Operator = ">"
	OpGte  Operator = ">="
	OpLt   Operator = "<"
	OpLte  Operator = "<="
	OpIn   Operator = "IN"
	OpLike Operator = "LIKE"
)

// Logic joins the filters of a Group.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Filter is a backend-neutral predicate over entities.
// It is one of Condition, Group or Negation. A nil Filter matches everything.
type Filter interface {
	filter()
}

// Condition compares a single field with a value.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Group combines filters with AND or OR.
type Group struct {
	Logic   Logic
	Filters []Filter
}

// Negation inverts a filter.
type Negation struct {
	Filter Filter
}

func (Condition) filter() {}
func (Group) filter()     {}
func (Negation) filter()  {}

func Eq(field string, value any) Filter  { return Condition{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Filter  { return Condition{Field: field, Op: OpNe, Value: value} }
func Gt(field string, value any) Filter  { return Condition{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value any) Filter { return Condition{Field: field, Op: OpGte, Value: value} }
func Lt(field string, value any) Filter  { return Condition{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value any) Filter { return Condition{Field: field, Op: OpLte, Value: value} }

// In matches when the field equals any element of values, which must be a
// slice or array.
func In(field string, values any) Filter { return Condition{Field: field, Op: OpIn, Value: values} }

// Like matches a SQL LIKE pattern: % is any run of characters, _ is any
// single character.
func Like(field, pattern string) Filter {
	return Condition{Field: field, Op: OpLike, Value: pattern}
}

// And matches when every filter matches. Nil filters are dropped; And of
// nothing is nil.
func And(filters ...Filter) Filter {
	return group(LogicAnd, filters)
}

// Or matches when any filter matches. Nil filters are dropped; Or of nothing
// is nil.
func Or(filters ...Filter) Filter {
	return group(LogicOr, filters)
}

// Not inverts f. Not(nil) is nil.
func Not(f Filter) Filter {
	if f == nil {
		return nil
	}
	return Negation{Filter: f}
}

func group(logic Logic, filters []Filter) Filter {
	kept := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return Group{Logic: logic, Filters: kept}
	}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidateField rejects names that are not plain, optionally dotted,
// identifiers.
func ValidateField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

// Validate checks every field name and operand in f.
func Validate(f Filter) error {
	switch v := f.(type) {
	case nil:
		return nil
	case Condition:
		if err := ValidateField(v.Field); err != nil {
			return err
		}
		switch v.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			return nil
		case OpIn:
			_, err := v.Values()
			return err
		case OpLike:
			if _, ok := v.Value.(string); !ok {
				return fmt.Errorf("%w: LIKE on %q needs a string pattern, got %T", ErrInvalidFilter, v.Field, v.Value)
			}
			return nil
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, v.Op)
		}
	case Group:
		if v.Logic != LogicAnd && v.Logic != LogicOr {
			return fmt.Errorf("%w: unknown logic %q", ErrInvalidFilter, v.Logic)
		}
		for _, child := range v.Filters {
			if err := Validate(child); err != nil {
				return err
			}
		}
		return nil
	case Negation:
		return Validate(v.Filter)
	default:
		return fmt.Errorf("%w: unsupported filter %T", ErrInvalidFilter, f)
	}
}

// Values expands the operand of an In condition.
func (c Condition) Values() ([]any, error) {
	rv := reflect.ValueOf(c.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: IN on %q needs a slice, got %T", ErrInvalidFilter, c.Field, c.Value)
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

// LikeRegexp converts a LIKE pattern into an anchored regular expression.
func LikeRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
