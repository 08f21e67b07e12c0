package gormrepo

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// classify maps driver failures onto repository error types, falling back to
// the type of the failed operation.
func classify(err error, fallback repository.ErrorType) repository.ErrorType {
	switch {
	case errors.Is(err, repository.ErrStale):
		return repository.ErrorConcurrency
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return repository.ErrorConstraintViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// Class 23: integrity constraint violation.
		case strings.HasPrefix(pgErr.Code, "23"):
			return repository.ErrorConstraintViolation
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return repository.ErrorConcurrency
		}
	}
	return fallback
}
