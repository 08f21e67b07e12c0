package mongorepo

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// Repository is the MongoDB implementation of repository.Store.
type Repository[T any, K comparable] struct {
	coll   *mongo.Collection
	entity string
	log    zerolog.Logger
}

var _ repository.Store[struct{ ID int }, int] = (*Repository[struct{ ID int }, int])(nil)

// Option configures a Repository.
type Option func(*options_)

type options_ struct {
	collection string
	log        zerolog.Logger
}

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(o *options_) {
		o.collection = name
	}
}

// WithLogger sets the logger used for write and failure events.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options_) {
		o.log = log
	}
}

// New returns a repository over the collection of T in db.
func New[T any, K comparable](db *mongo.Database, opts ...Option) *Repository[T, K] {
	entity := repository.EntityName[T]()
	o := options_{collection: entity, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T, K]{
		coll:   db.Collection(o.collection),
		entity: entity,
		log:    o.log.With().Str("entity", entity).Str("collection", o.collection).Logger(),
	}
}

// Collection returns the underlying collection for queries the repository
// contract does not cover.
func (r *Repository[T, K]) Collection() *mongo.Collection {
	return r.coll
}

func byID(id any) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func (r *Repository[T, K]) fail(kind repository.ErrorType, op string, err error) error {
	kind = classify(err, kind)
	r.log.Error().Err(err).Str("op", op).Stringer("type", kind).Msg("repository operation failed")
	return repository.NewError(kind, r.entity, op, err)
}

func (r *Repository[T, K]) findOne(ctx context.Context, op string, filter bson.D) (*T, error) {
	var entity T
	if err := r.coll.FindOne(ctx, filter).Decode(&entity); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, r.fail(repository.ErrorQuery, op, err)
	}
	return &entity, nil
}

func (r *Repository[T, K]) findMany(ctx context.Context, op string, filter bson.D, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, r.fail(repository.ErrorQuery, op, err)
	}
	entities := []T{}
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, r.fail(repository.ErrorQuery, op, err)
	}
	return entities, nil
}

func (r *Repository[T, K]) Get(ctx context.Context, filter repository.Filter) (*T, error) {
	doc, err := Translate(filter)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "Get", doc)
}

func (r *Repository[T, K]) List(ctx context.Context, filter repository.Filter) ([]T, error) {
	doc, err := Translate(filter)
	if err != nil {
		return nil, err
	}
	return r.findMany(ctx, "List", doc)
}

func (r *Repository[T, K]) GetByID(ctx context.Context, id K) (*T, error) {
	return r.findOne(ctx, "GetByID", byID(id))
}

func (r *Repository[T, K]) GetByIDWithTracking(ctx context.Context, id K, _ bool) (*T, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository[T, K]) GetAll(ctx context.Context) ([]T, error) {
	return r.findMany(ctx, "GetAll", bson.D{})
}

func (r *Repository[T, K]) Add(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	if _, err := r.coll.InsertOne(ctx, entity); err != nil {
		return r.fail(repository.ErrorAdd, "Add", err)
	}
	r.log.Debug().Str("op", "Add").Msg("write applied")
	return nil
}

func (r *Repository[T, K]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	id, err := repository.IDOf[K](entity)
	if err != nil {
		return err
	}
	res, err := r.coll.ReplaceOne(ctx, byID(id), entity)
	if err != nil {
		return r.fail(repository.ErrorUpdate, "Update", err)
	}
	if res.MatchedCount == 0 {
		return r.fail(repository.ErrorUpdate, "Update", repository.ErrStale)
	}
	r.log.Debug().Str("op", "Update").Msg("write applied")
	return nil
}

func (r *Repository[T, K]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return repository.ErrNilEntity
	}
	id, err := repository.IDOf[K](entity)
	if err != nil {
		return err
	}
	return r.deleteByID(ctx, "Delete", id)
}

func (r *Repository[T, K]) DeleteByID(ctx context.Context, id K) error {
	return r.deleteByID(ctx, "DeleteByID", id)
}

func (r *Repository[T, K]) deleteByID(ctx context.Context, op string, id K) error {
	if _, err := r.coll.DeleteOne(ctx, byID(id)); err != nil {
		return r.fail(repository.ErrorDelete, op, err)
	}
	r.log.Debug().Str("op", op).Msg("write applied")
	return nil
}

func (r *Repository[T, K]) AddRange(ctx context.Context, entities []*T) error {
	if err := repository.CheckEntities(entities); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}
	docs := make([]any, len(entities))
	for i, e := range entities {
		docs[i] = e
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return r.fail(repository.ErrorAdd, "AddRange", err)
	}
	r.log.Debug().Str("op", "AddRange").Int("documents", len(res.InsertedIDs)).Msg("write applied")
	return nil
}

func (r *Repository[T, K]) UpdateRange(ctx context.Context, entities []*T) error {
	if err := repository.CheckEntities(entities); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		id, err := repository.IDOf[K](e)
		if err != nil {
			return err
		}
		models = append(models, mongo.NewReplaceOneModel().SetFilter(byID(id)).SetReplacement(e))
	}
	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return r.fail(repository.ErrorUpdate, "UpdateRange", err)
	}
	if res.MatchedCount < int64(len(models)) {
		return r.fail(repository.ErrorUpdate, "UpdateRange", repository.ErrStale)
	}
	r.log.Debug().Str("op", "UpdateRange").Int64("documents", res.ModifiedCount).Msg("write applied")
	return nil
}

func (r *Repository[T, K]) DeleteRange(ctx context.Context, entities []*T) error {
	ids, err := repository.IDsOf[T, K](entities)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return r.fail(repository.ErrorDelete, "DeleteRange", err)
	}
	r.log.Debug().Str("op", "DeleteRange").Int64("documents", res.DeletedCount).Msg("write applied")
	return nil
}

func (r *Repository[T, K]) DeleteWhere(ctx context.Context, filter repository.Filter) (int64, error) {
	doc, err := Translate(filter)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.DeleteMany(ctx, doc)
	if err != nil {
		return 0, r.fail(repository.ErrorDelete, "DeleteWhere", err)
	}
	return res.DeletedCount, nil
}

func (r *Repository[T, K]) Find(ctx context.Context, filter repository.Filter) ([]T, error) {
	doc, err := Translate(filter)
	if err != nil {
		return nil, err
	}
	return r.findMany(ctx, "Find", doc)
}

func (r *Repository[T, K]) FindWithTracking(ctx context.Context, filter repository.Filter, _ bool) ([]T, error) {
	return r.Find(ctx, filter)
}

func (r *Repository[T, K]) GetSorted(ctx context.Context, field string, desc bool) ([]T, error) {
	if err := repository.ValidateField(field); err != nil {
		return nil, err
	}
	order := 1
	if desc {
		order = -1
	}
	return r.findMany(ctx, "GetSorted", bson.D{}, options.Find().SetSort(bson.D{{Key: field, Value: order}}))
}

// GetPaged orders by _id so pages are stable.
func (r *Repository[T, K]) GetPaged(ctx context.Context, pageIndex, pageSize int) ([]T, error) {
	offset, err := repository.PageOffset(pageIndex, pageSize)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(pageSize))
	return r.findMany(ctx, "GetPaged", bson.D{}, opts)
}

func (r *Repository[T, K]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	doc, err := Translate(filter)
	if err != nil {
		return 0, err
	}
	n, err := r.coll.CountDocuments(ctx, doc)
	if err != nil {
		return 0, r.fail(repository.ErrorQuery, "Count", err)
	}
	return n, nil
}

func (r *Repository[T, K]) Exists(ctx context.Context, filter repository.Filter) (bool, error) {
	doc, err := Translate(filter)
	if err != nil {
		return false, err
	}
	n, err := r.coll.CountDocuments(ctx, doc, options.Count().SetLimit(1))
	if err != nil {
		return false, r.fail(repository.ErrorQuery, "Exists", err)
	}
	return n > 0, nil
}
