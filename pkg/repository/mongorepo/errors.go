package mongorepo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// writeConflict is the server code for a write conflict between concurrent
// operations.
const writeConflict = 112

func classify(err error, fallback repository.ErrorType) repository.ErrorType {
	if errors.Is(err, repository.ErrStale) {
		return repository.ErrorConcurrency
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrorConstraintViolation
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == writeConflict || cmdErr.HasErrorLabel("TransientTransactionError")) {
		return repository.ErrorConcurrency
	}
	return fallback
}
