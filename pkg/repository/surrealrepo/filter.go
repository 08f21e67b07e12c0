package surrealrepo

import (
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// Condition renders f as a SurrealQL condition with ? placeholders, in the
// form accepted by [SelectQuery.Where]. A nil filter renders as the empty
// string.
func Condition(f repository.Filter) (string, []any, error) {
	if err := repository.Validate(f); err != nil {
		return "", nil, err
	}
	if f == nil {
		return "", nil, nil
	}
	var args []any
	cond, err := condition(f, &args)
	if err != nil {
		return "", nil, err
	}
	return cond, args, nil
}

func condition(f repository.Filter, args *[]any) (string, error) {
	switch v := f.(type) {
	case repository.Condition:
		switch v.Op {
		case repository.OpEq, repository.OpNe, repository.OpGt, repository.OpGte, repository.OpLt, repository.OpLte:
			*args = append(*args, v.Value)
			return fmt.Sprintf("%s %s ?", v.Field, v.Op), nil
		case repository.OpIn:
			values, err := v.Values()
			if err != nil {
				return "", err
			}
			*args = append(*args, values)
			return v.Field + " IN ?", nil
		case repository.OpLike:
			*args = append(*args, repository.LikeRegexp(v.Value.(string)))
			return fmt.Sprintf("string::matches(%s, ?)", v.Field), nil
		}
		return "", fmt.Errorf("%w: unknown operator %q", repository.ErrInvalidFilter, v.Op)

	case repository.Group:
		parts := make([]string, 0, len(v.Filters))
		for _, child := range v.Filters {
			part, err := condition(child, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, " "+string(v.Logic)+" ") + ")", nil

	case repository.Negation:
		inner, err := condition(v.Filter, args)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	}
	return "", fmt.Errorf("%w: unsupported filter %T", repository.ErrInvalidFilter, f)
}

// bind replaces each ? in cond with a named variable registered in vars.
func bind(cond string, args []any, vars map[string]any, prefix string) string {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			name := fmt.Sprintf("%s_%d", prefix, i+1)
			vars[name] = args[i]
			b.WriteString("$" + name)
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
