package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// Repository is the GORM implementation of repository.Store.
type Repository[T any, K comparable] struct {
	db        *gorm.DB
	uow       *UnitOfWork
	entity    string
	table     string
	keyColumn string
	log       zerolog.Logger
}

var _ repository.Store[struct{ ID int }, int] = (*Repository[struct{ ID int }, int])(nil)

// Option configures a Repository.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger sets the logger used for write and failure events.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New returns a standalone repository over db. Writes are persisted
// immediately.
func New[T any, K comparable](db *gorm.DB, opts ...Option) (*Repository[T, K], error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return newRepository[T, K](db, nil, o.log)
}

func newRepository[T any, K comparable](db *gorm.DB, uow *UnitOfWork, log zerolog.Logger) (*Repository[T, K], error) {
	entity := repository.EntityName[T]()

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("failed to parse schema of %s: %w", entity, err)
	}
	key := stmt.Schema.PrioritizedPrimaryField
	if key == nil && len(stmt.Schema.PrimaryFields) > 0 {
		key = stmt.Schema.PrimaryFields[0]
	}
	if key == nil {
		return nil, fmt.Errorf("%s has no primary key", entity)
	}

	return &Repository[T, K]{
		db:        db,
		uow:       uow,
		entity:    entity,
		table:     stmt.Schema.Table,
		keyColumn: key.DBName,
		log:       log.With().Str("entity", entity).Logger(),
	}, nil
}

// Query returns a GORM session scoped to the entity's table for queries the
// repository contract does not cover.
func (r *Repository[T, K]) Query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T))
}

// Table returns the table name GORM derived for T.
func (r *Repository[T, K]) Table() string {
	return r.table
}

func (r *Repository[T, K]) fail(kind repository.ErrorType, op string, err error) error {
	kind = classify(err, kind)
	r.log.Error().Err(err).Str("op", op).Stringer("type", kind).Msg("repository operation failed")
	return repository.NewError(kind, r.entity, op, err)
}

func (r *Repository[T, K]) keyEq(id K) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: r.keyColumn}, Value: id}
}

// scoped applies filter to a fresh session.
func (r *Repository[T, K]) scoped(ctx context.Context, filter repository.Filter) (*gorm.DB, error) {
	if err := repository.Validate(filter); err != nil {
		return nil, err
	}
	db := r.Query(ctx)
	if filter == nil {
		return db, nil
	}
	expr, err := expression(filter)
	if err != nil {
		return nil, err
	}
	return db.Clauses(clause.Where{Exprs: []clause.Expression{expr}}), nil
}

func (r *Repository[T, K]) first(db *gorm.DB, op string) (*T, error) {
	var entity T
	if err := db.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.fail(repository.ErrorQuery, op, err)
	}
	return &entity, nil
}

func (r *Repository[T, K]) find(db *gorm.DB, op string) ([]T, error) {
	var entities []T
	if err := db.Find(&entities).Error; err != nil {
		return nil, r.fail(repository.ErrorQuery, op, err)
	}
	return entities, nil
}

// write runs apply now, in its own transaction, or stages it on the unit of
// work.
func (r *Repository[T, K]) write(ctx context.Context, kind repository.ErrorType, op string, apply func(tx *gorm.DB) (int64, error)) (int64, error) {
	if r.uow != nil {
		if err := r.uow.stage(change{entity: r.entity, op: op, kind: kind, apply: apply}); err != nil {
			return 0, err
		}
		r.log.Debug().Str("op", op).Msg("write staged")
		return 0, nil
	}

	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := apply(tx)
		rows = n
		return err
	})
	if err != nil {
		return 0, r.fail(kind, op, err)
	}
	r.log.Debug().Str("op", op).Int64("rows", rows).Msg("write applied")
	return rows, nil
}

func (r *Repository[T, K]) Get(ctx context.Context, filter repository.Filter) (*T, error) {
	db, err := r.scoped(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.first(db, "Get")
}

func (r *Repository[T, K]) List(ctx context.Context, filter repository.Filter) ([]T, error) {
	db, err := r.scoped(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.find(db, "List")
}

func (r *Repository[T, K]) GetByID(ctx context.Context, id K) (*T, error) {
	return r.first(r.Query(ctx).Where(r.keyEq(id)), "GetByID")
}

func (r *Repository[T, K]) GetByIDWithTracking(ctx context.Context, id K, _ bool) (*T, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository[T, K]) GetAll(ctx context.Context) ([]T, error) {
	return r.find(r.Query(ctx), "GetAll")
}

func (r *Repository[T, K]) Add(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	_, err := r.write(ctx, repository.ErrorAdd, "Add", func(tx *gorm.DB) (int64, error) {
		res := tx.Create(entity)
		return res.RowsAffected, res.Error
	})
	return err
}

// updateOne replaces every column of entity, reporting ErrStale when no row
// carries its key.
func updateOne[T any](tx *gorm.DB, entity *T) (int64, error) {
	res := tx.Model(entity).Select("*").Updates(entity)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repository.ErrStale
	}
	return res.RowsAffected, nil
}

func (r *Repository[T, K]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	_, err := r.write(ctx, repository.ErrorUpdate, "Update", func(tx *gorm.DB) (int64, error) {
		return updateOne(tx, entity)
	})
	return err
}

func (r *Repository[T, K]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	_, err := r.write(ctx, repository.ErrorDelete, "Delete", func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(entity)
		return res.RowsAffected, res.Error
	})
	return err
}

func (r *Repository[T, K]) DeleteByID(ctx context.Context, id K) error {
	_, err := r.write(ctx, repository.ErrorDelete, "DeleteByID", func(tx *gorm.DB) (int64, error) {
		res := tx.Where(r.keyEq(id)).Delete(new(T))
		return res.RowsAffected, res.Error
	})
	return err
}

func (r *Repository[T, K]) AddRange(ctx context.Context, entities []*T) error {
	if err := repository.CheckEntities(entities); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}
	_, err := r.write(ctx, repository.ErrorAdd, "AddRange", func(tx *gorm.DB) (int64, error) {
		res := tx.Create(entities)
		return res.RowsAffected, res.Error
	})
	return err
}

func (r *Repository[T, K]) UpdateRange(ctx context.Context, entities []*T) error {
	if err := repository.CheckEntities(entities); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}
	_, err := r.write(ctx, repository.ErrorUpdate, "UpdateRange", func(tx *gorm.DB) (int64, error) {
		var total int64
		for _, entity := range entities {
			n, err := updateOne(tx, entity)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	})
	return err
}

func (r *Repository[T, K]) DeleteRange(ctx context.Context, entities []*T) error {
	ids, err := repository.IDsOf[T, K](entities)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	_, err = r.write(ctx, repository.ErrorDelete, "DeleteRange", func(tx *gorm.DB) (int64, error) {
		res := tx.Where(clause.IN{Column: clause.Column{Name: r.keyColumn}, Values: values}).Delete(new(T))
		return res.RowsAffected, res.Error
	})
	return err
}

func (r *Repository[T, K]) DeleteWhere(ctx context.Context, filter repository.Filter) (int64, error) {
	if err := repository.Validate(filter); err != nil {
		return 0, err
	}
	var where []clause.Expression
	if filter != nil {
		expr, err := expression(filter)
		if err != nil {
			return 0, err
		}
		where = append(where, expr)
	}
	return r.write(ctx, repository.ErrorDelete, "DeleteWhere", func(tx *gorm.DB) (int64, error) {
		if where == nil {
			tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		} else {
			tx = tx.Clauses(clause.Where{Exprs: where})
		}
		res := tx.Delete(new(T))
		return res.RowsAffected, res.Error
	})
}

func (r *Repository[T, K]) Find(ctx context.Context, filter repository.Filter) ([]T, error) {
	db, err := r.scoped(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.find(db, "Find")
}

func (r *Repository[T, K]) FindWithTracking(ctx context.Context, filter repository.Filter, _ bool) ([]T, error) {
	return r.Find(ctx, filter)
}

func (r *Repository[T, K]) GetSorted(ctx context.Context, field string, desc bool) ([]T, error) {
	if err := repository.ValidateField(field); err != nil {
		return nil, err
	}
	db := r.Query(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: desc})
	return r.find(db, "GetSorted")
}

// GetPaged orders by the primary key so pages are stable.
func (r *Repository[T, K]) GetPaged(ctx context.Context, pageIndex, pageSize int) ([]T, error) {
	offset, err := repository.PageOffset(pageIndex, pageSize)
	if err != nil {
		return nil, err
	}
	db := r.Query(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: r.keyColumn}}).
		Offset(offset).
		Limit(pageSize)
	return r.find(db, "GetPaged")
}

func (r *Repository[T, K]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	db, err := r.scoped(ctx, filter)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, r.fail(repository.ErrorQuery, "Count", err)
	}
	return n, nil
}

func (r *Repository[T, K]) Exists(ctx context.Context, filter repository.Filter) (bool, error) {
	n, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
