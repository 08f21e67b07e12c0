package gormrepo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want repository.ErrorType
	}{
		{name: "stale", err: repository.ErrStale, want: repository.ErrorConcurrency},
		{name: "duplicated key", err: gorm.ErrDuplicatedKey, want: repository.ErrorConstraintViolation},
		{name: "foreign key", err: fmt.Errorf("insert: %w", gorm.ErrForeignKeyViolated), want: repository.ErrorConstraintViolation},
		{name: "pg unique", err: &pgconn.PgError{Code: "23505"}, want: repository.ErrorConstraintViolation},
		{name: "pg check", err: &pgconn.PgError{Code: "23514"}, want: repository.ErrorConstraintViolation},
		{name: "pg serialization", err: &pgconn.PgError{Code: "40001"}, want: repository.ErrorConcurrency},
		{name: "pg deadlock", err: &pgconn.PgError{Code: "40P01"}, want: repository.ErrorConcurrency},
		{name: "pg other", err: &pgconn.PgError{Code: "42P01"}, want: repository.ErrorQuery},
		{name: "plain", err: errors.New("connection reset"), want: repository.ErrorQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err, repository.ErrorQuery))
		})
	}
}
