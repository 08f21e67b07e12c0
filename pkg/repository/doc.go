// Package repository defines the generic data-access contracts shared by every
// repokit backend.
//
// A backend adapter (see [github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/gormrepo],
// [github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/mongorepo] and
// [github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/surrealrepo])
// forwards each call to the wrapped client library and implements [Store],
// the union of four smaller contracts:
//
//   - [ReadOnlyRepository]: filter based reads (Get, List)
//   - [Repository]: identity based CRUD
//   - [BulkRepository]: range writes and filtered deletes
//   - [QueryRepository]: find, sort, page, count
//
// Application code depends on these interfaces only, so a backend can be
// swapped or mocked without touching business logic.
//
// # Filters
//
// Predicates are expressed as a backend-neutral [Filter] tree built with
// [Eq], [Gt], [In], [Like], [And], [Or], [Not] and friends. Each adapter
// translates the tree into its native query form. A nil Filter matches every
// entity.
//
//	filter := repository.And(
//		repository.Gte("price", 100),
//		repository.Like("name", "%lamp%"),
//	)
//	items, err := store.Find(ctx, filter)
//
// # Errors
//
// Failures raised by the wrapped library are returned as [*Error], which
// records the operation, the entity type and a classified [ErrorType] such as
// [ErrorConstraintViolation] or [ErrorConcurrency]. Argument problems are
// reported with sentinel errors ([ErrNilEntity], [ErrInvalidPage],
// [ErrInvalidField]) that match with errors.Is.
//
// Lookups that find nothing are not errors: GetByID and Get return a nil
// entity and a nil error.
//
// # Units of work
//
// Backends that support transactions expose a [UnitOfWork]. Repositories
// resolved through a unit of work stage their writes until
// [UnitOfWork.SaveChanges] commits them together. A [Manager] hands out one
// unit of work per registered name and closes them all on shutdown.
package repository
