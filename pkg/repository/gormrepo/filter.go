package gormrepo

import (
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// expression translates a validated filter into a GORM clause expression.
func expression(f repository.Filter) (clause.Expression, error) {
	switch v := f.(type) {
	case repository.Condition:
		col := clause.Column{Name: v.Field}
		switch v.Op {
		case repository.OpEq:
			return clause.Eq{Column: col, Value: v.Value}, nil
		case repository.OpNe:
			return clause.Neq{Column: col, Value: v.Value}, nil
		case repository.OpGt:
			return clause.Gt{Column: col, Value: v.Value}, nil
		case repository.OpGte:
			return clause.Gte{Column: col, Value: v.Value}, nil
		case repository.OpLt:
			return clause.Lt{Column: col, Value: v.Value}, nil
		case repository.OpLte:
			return clause.Lte{Column: col, Value: v.Value}, nil
		case repository.OpIn:
			values, err := v.Values()
			if err != nil {
				return nil, err
			}
			return clause.IN{Column: col, Values: values}, nil
		case repository.OpLike:
			return clause.Like{Column: col, Value: v.Value}, nil
		}
		return nil, fmt.Errorf("%w: unknown operator %q", repository.ErrInvalidFilter, v.Op)

	case repository.Group:
		exprs := make([]clause.Expression, 0, len(v.Filters))
		for _, child := range v.Filters {
			e, err := expression(child)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		if v.Logic == repository.LogicOr {
			return clause.Or(exprs...), nil
		}
		return clause.And(exprs...), nil

	case repository.Negation:
		e, err := expression(v.Filter)
		if err != nil {
			return nil, err
		}
		return clause.Not(e), nil
	}
	return nil, fmt.Errorf("%w: unsupported filter %T", repository.ErrInvalidFilter, f)
}
