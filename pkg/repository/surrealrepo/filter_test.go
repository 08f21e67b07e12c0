package surrealrepo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/surrealrepo"
)

func TestCondition(t *testing.T) {
	tests := []struct {
		name     string
		filter   repository.Filter
		wantCond string
		wantArgs []any
	}{
		{
			name:     "nil",
			filter:   nil,
			wantCond: "",
		},
		{
			name:     "comparison",
			filter:   repository.Gt("price", 10),
			wantCond: "price > ?",
			wantArgs: []any{10},
		},
		{
			name:     "in",
			filter:   repository.In("name", []string{"a", "b"}),
			wantCond: "name IN ?",
			wantArgs: []any{[]any{"a", "b"}},
		},
		{
			name:     "like",
			filter:   repository.Like("name", "desk%"),
			wantCond: "string::matches(name, ?)",
			wantArgs: []any{repository.LikeRegexp("desk%")},
		},
		{
			name: "nested",
			filter: repository.And(
				repository.Gte("price", 5),
				repository.Not(repository.Or(repository.Eq("name", "a"), repository.Eq("name", "b"))),
			),
			wantCond: "(price >= ? AND !((name = ? OR name = ?)))",
			wantArgs: []any{5, "a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, args, err := surrealrepo.Condition(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCond, cond)
			assert.Equal(t, tt.wantArgs, args)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, _, err := surrealrepo.Condition(repository.In("name", "not a slice"))
		assert.ErrorIs(t, err, repository.ErrInvalidFilter)
	})
}
