package surrealrepo

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// Repository is the SurrealDB implementation of repository.Store.
type Repository[T any, K comparable] struct {
	db     *surrealdb.DB
	uow    *UnitOfWork
	entity string
	table  string
	log    zerolog.Logger
}

var _ repository.Store[struct{ ID int }, int] = (*Repository[struct{ ID int }, int])(nil)

// Option configures a Repository.
type Option func(*options)

type options struct {
	table string
	log   zerolog.Logger
}

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// WithLogger sets the logger used for write and failure events.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New returns a standalone repository over db. Writes are persisted
// immediately.
func New[T any, K comparable](db *surrealdb.DB, opts ...Option) *Repository[T, K] {
	return newRepository[T, K](db, nil, opts...)
}

func newRepository[T any, K comparable](db *surrealdb.DB, uow *UnitOfWork, opts ...Option) *Repository[T, K] {
	entity := repository.EntityName[T]()
	o := options{table: strings.ToLower(entity), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T, K]{
		db:     db,
		uow:    uow,
		entity: entity,
		table:  o.table,
		log:    o.log.With().Str("entity", entity).Str("table", o.table).Logger(),
	}
}

// Table returns the table the repository reads and writes.
func (r *Repository[T, K]) Table() string {
	return r.table
}

// RecordID returns the record ID the repository uses for id.
func (r *Repository[T, K]) RecordID(id K) models.RecordID {
	return recordIDFor(r.table, id)
}

// Select returns a builder for SELECT * FROM the repository's table, for
// queries the repository contract does not cover. Run it with [Query].
func (r *Repository[T, K]) Select() *SelectQuery {
	return From(r.table)
}

// Query runs q and decodes the rows of its first result.
func (r *Repository[T, K]) Query(ctx context.Context, q *SelectQuery) ([]T, error) {
	return r.query(ctx, "Query", q)
}

func (r *Repository[T, K]) fail(kind repository.ErrorType, op string, err error) error {
	kind = classify(err, kind)
	r.log.Error().Err(err).Str("op", op).Stringer("type", kind).Msg("repository operation failed")
	return repository.NewError(kind, r.entity, op, err)
}

func (r *Repository[T, K]) filtered(filter repository.Filter) (*SelectQuery, error) {
	cond, args, err := Condition(filter)
	if err != nil {
		return nil, err
	}
	q := r.Select()
	if cond != "" {
		q = q.Where(cond, args...)
	}
	return q, nil
}

func (r *Repository[T, K]) query(ctx context.Context, op string, q *SelectQuery) ([]T, error) {
	sql, vars := q.Build()
	res, err := surrealdb.Query[[]T](ctx, r.db, sql, vars)
	if err != nil {
		return nil, r.fail(repository.ErrorQuery, op, err)
	}
	if res == nil || len(*res) == 0 || (*res)[0].Result == nil {
		return []T{}, nil
	}
	return (*res)[0].Result, nil
}

func (r *Repository[T, K]) entityID(entity *T) (models.RecordID, error) {
	id, err := repository.IDOf[K](entity)
	if err != nil {
		return models.RecordID{}, err
	}
	return r.RecordID(id), nil
}

// write runs stmts now, in one transaction, or stages them on the unit of
// work.
func (r *Repository[T, K]) write(ctx context.Context, op string, stmts ...statement) (int64, error) {
	if r.uow != nil {
		if err := r.uow.stage(stmts...); err != nil {
			return 0, err
		}
		r.log.Debug().Str("op", op).Int("statements", len(stmts)).Msg("write staged")
		return 0, nil
	}

	n, failed, err := execute(ctx, r.db, stmts)
	if err != nil {
		return 0, r.fail(stmts[failed].kind, op, err)
	}
	r.log.Debug().Str("op", op).Int64("records", n).Msg("write applied")
	return n, nil
}

func (r *Repository[T, K]) Get(ctx context.Context, filter repository.Filter) (*T, error) {
	q, err := r.filtered(filter)
	if err != nil {
		return nil, err
	}
	items, err := r.query(ctx, "Get", q.Limit(1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *Repository[T, K]) List(ctx context.Context, filter repository.Filter) ([]T, error) {
	q, err := r.filtered(filter)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, "List", q)
}

func (r *Repository[T, K]) GetByID(ctx context.Context, id K) (*T, error) {
	entity, err := surrealdb.Select[T](ctx, r.db, r.RecordID(id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, r.fail(repository.ErrorQuery, "GetByID", err)
	}
	return entity, nil
}

func (r *Repository[T, K]) GetByIDWithTracking(ctx context.Context, id K, _ bool) (*T, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository[T, K]) GetAll(ctx context.Context) ([]T, error) {
	return r.query(ctx, "GetAll", r.Select())
}

func (r *Repository[T, K]) Add(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	rid, err := r.entityID(entity)
	if err != nil {
		return err
	}
	_, err = r.write(ctx, "Add", createStatement(r.entity, "Add", rid, entity))
	return err
}

func (r *Repository[T, K]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	rid, err := r.entityID(entity)
	if err != nil {
		return err
	}
	_, err = r.write(ctx, "Update", updateStatement(r.entity, "Update", rid, entity))
	return err
}

func (r *Repository[T, K]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	rid, err := r.entityID(entity)
	if err != nil {
		return err
	}
	_, err = r.write(ctx, "Delete", deleteStatement(r.entity, "Delete", rid))
	return err
}

func (r *Repository[T, K]) DeleteByID(ctx context.Context, id K) error {
	_, err := r.write(ctx, "DeleteByID", deleteStatement(r.entity, "DeleteByID", r.RecordID(id)))
	return err
}

func (r *Repository[T, K]) rangeStatements(entities []*T, build func(rid models.RecordID, entity *T) statement) ([]statement, error) {
	if err := repository.CheckEntities(entities); err != nil {
		return nil, err
	}
	stmts := make([]statement, 0, len(entities))
	for _, entity := range entities {
		rid, err := r.entityID(entity)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, build(rid, entity))
	}
	return stmts, nil
}

func (r *Repository[T, K]) AddRange(ctx context.Context, entities []*T) error {
	stmts, err := r.rangeStatements(entities, func(rid models.RecordID, entity *T) statement {
		return createStatement(r.entity, "AddRange", rid, entity)
	})
	if err != nil || len(stmts) == 0 {
		return err
	}
	_, err = r.write(ctx, "AddRange", stmts...)
	return err
}

func (r *Repository[T, K]) UpdateRange(ctx context.Context, entities []*T) error {
	stmts, err := r.rangeStatements(entities, func(rid models.RecordID, entity *T) statement {
		return updateStatement(r.entity, "UpdateRange", rid, entity)
	})
	if err != nil || len(stmts) == 0 {
		return err
	}
	_, err = r.write(ctx, "UpdateRange", stmts...)
	return err
}

func (r *Repository[T, K]) DeleteRange(ctx context.Context, entities []*T) error {
	stmts, err := r.rangeStatements(entities, func(rid models.RecordID, _ *T) statement {
		return deleteStatement(r.entity, "DeleteRange", rid)
	})
	if err != nil || len(stmts) == 0 {
		return err
	}
	_, err = r.write(ctx, "DeleteRange", stmts...)
	return err
}

func (r *Repository[T, K]) DeleteWhere(ctx context.Context, filter repository.Filter) (int64, error) {
	cond, args, err := Condition(filter)
	if err != nil {
		return 0, err
	}
	return r.write(ctx, "DeleteWhere", deleteWhereStatement(r.entity, r.table, cond, args))
}

func (r *Repository[T, K]) Find(ctx context.Context, filter repository.Filter) ([]T, error) {
	q, err := r.filtered(filter)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, "Find", q)
}

func (r *Repository[T, K]) FindWithTracking(ctx context.Context, filter repository.Filter, _ bool) ([]T, error) {
	return r.Find(ctx, filter)
}

func (r *Repository[T, K]) GetSorted(ctx context.Context, field string, desc bool) ([]T, error) {
	if err := repository.ValidateField(field); err != nil {
		return nil, err
	}
	return r.query(ctx, "GetSorted", r.Select().OrderBy(field, desc))
}

// GetPaged orders by record ID so pages are stable.
func (r *Repository[T, K]) GetPaged(ctx context.Context, pageIndex, pageSize int) ([]T, error) {
	offset, err := repository.PageOffset(pageIndex, pageSize)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, "GetPaged", r.Select().OrderBy("id", false).Start(offset).Limit(pageSize))
}

type countRow struct {
	Total int64 `json:"total"`
}

func (r *Repository[T, K]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	q, err := r.filtered(filter)
	if err != nil {
		return 0, err
	}
	sql, vars := q.Fields("count() AS total").GroupAll().Build()
	res, err := surrealdb.Query[[]countRow](ctx, r.db, sql, vars)
	if err != nil {
		return 0, r.fail(repository.ErrorQuery, "Count", err)
	}
	if res == nil || len(*res) == 0 || len((*res)[0].Result) == 0 {
		return 0, nil
	}
	return (*res)[0].Result[0].Total, nil
}

func (r *Repository[T, K]) Exists(ctx context.Context, filter repository.Filter) (bool, error) {
	n, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
