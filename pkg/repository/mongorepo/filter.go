package mongorepo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

var operators = map[repository.Operator]string{
	repository.OpEq:  "$eq",
	repository.OpNe:  "$ne",
	repository.OpGt:  "$gt",
	repository.OpGte: "$gte",
	repository.OpLt:  "$lt",
	repository.OpLte: "$lte",
}

// Translate converts f into a MongoDB query document. A nil filter becomes
// the empty document, which matches everything.
func Translate(f repository.Filter) (bson.D, error) {
	if err := repository.Validate(f); err != nil {
		return nil, err
	}
	if f == nil {
		return bson.D{}, nil
	}
	return translate(f)
}

func translate(f repository.Filter) (bson.D, error) {
	switch v := f.(type) {
	case repository.Condition:
		if op, ok := operators[v.Op]; ok {
			return bson.D{{Key: v.Field, Value: bson.D{{Key: op, Value: v.Value}}}}, nil
		}
		switch v.Op {
		case repository.OpIn:
			values, err := v.Values()
			if err != nil {
				return nil, err
			}
			return bson.D{{Key: v.Field, Value: bson.D{{Key: "$in", Value: bson.A(values)}}}}, nil
		case repository.OpLike:
			pattern := primitive.Regex{Pattern: repository.LikeRegexp(v.Value.(string))}
			return bson.D{{Key: v.Field, Value: bson.D{{Key: "$regex", Value: pattern}}}}, nil
		}
		return nil, fmt.Errorf("%w: unknown operator %q", repository.ErrInvalidFilter, v.Op)

	case repository.Group:
		docs := make(bson.A, 0, len(v.Filters))
		for _, child := range v.Filters {
			d, err := translate(child)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
		op := "$and"
		if v.Logic == repository.LogicOr {
			op = "$or"
		}
		return bson.D{{Key: op, Value: docs}}, nil

	case repository.Negation:
		d, err := translate(v.Filter)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$nor", Value: bson.A{d}}}, nil
	}
	return nil, fmt.Errorf("%w: unsupported filter %T", repository.ErrInvalidFilter, f)
}
