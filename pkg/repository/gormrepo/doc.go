// Package gormrepo implements the [github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository.Store]
// contract on top of GORM.
//
// A [Repository] forwards every call to a *gorm.DB. Filters are translated
// into gorm/clause expressions, sort fields into quoted ORDER BY columns and
// pages into OFFSET/LIMIT, so GORM and the SQL driver do all of the query
// work.
//
// # Standalone and unit-of-work repositories
//
// [New] returns a standalone repository whose writes are persisted as soon as
// they are called, each inside its own transaction.
//
// [RepositoryOf] returns the repository of an entity type bound to a
// [UnitOfWork]. Its writes are staged and only reach the database when
// [UnitOfWork.SaveChanges] runs them, in order, in one transaction. Reads
// always go to the database and do not see staged writes.
//
//	uow := gormrepo.NewUnitOfWork(db)
//	products, err := gormrepo.RepositoryOf[models.Product, models.ProductID](uow)
//	if err != nil {
//		return err
//	}
//	_ = products.Add(ctx, &lamp)
//	_ = products.Add(ctx, &desk)
//	n, err := uow.SaveChanges(ctx) // n == 2
//
// # Drivers
//
// [Open] supports PostgreSQL through gorm.io/driver/postgres and SQLite through
// github.com/glebarez/sqlite, which needs no cgo and backs the tests.
//
// # Errors
//
// Driver failures are wrapped in *repository.Error. Unique, foreign key and
// check violations classify as constraint violations; PostgreSQL
// serialization failures and deadlocks, as well as updates that match no
// row, classify as concurrency conflicts.
//
// GORM keeps no identity map, so the tracking flags of FindWithTracking and
// GetByIDWithTracking have no effect.
package gormrepo
