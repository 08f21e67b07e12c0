package mongorepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/mongorepo"
)

type product struct {
	ID    string  `bson:"_id"`
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
}

const ns = "repokit.products"

func newRepo(mt *mtest.T) *mongorepo.Repository[product, string] {
	return mongorepo.New[product, string](mt.DB, mongorepo.WithCollection("products"))
}

func productDoc(id, name string, price float64) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "name", Value: name}, {Key: "price", Value: price}}
}

func TestRepositoryReads(t *testing.T) {
	ctx := context.Background()
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("GetByID", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, productDoc("p1", "desk lamp", 25)))

		got, err := newRepo(mt).GetByID(ctx, "p1")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, product{ID: "p1", Name: "desk lamp", Price: 25}, *got)
	})

	mt.Run("GetByID not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := newRepo(mt).GetByID(ctx, "missing")
		require.NoError(mt, err)
		assert.Nil(mt, got)
	})

	mt.Run("Find", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			productDoc("p2", "floor lamp", 80),
			productDoc("p4", "desk", 150),
		))

		got, err := newRepo(mt).Find(ctx, repository.Gt("price", 50))
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "floor lamp", got[0].Name)
		assert.Equal(mt, "desk", got[1].Name)
	})

	mt.Run("GetAll empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := newRepo(mt).GetAll(ctx)
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("GetPaged rejects bad page", func(mt *mtest.T) {
		_, err := newRepo(mt).GetPaged(ctx, 0, 10)
		assert.ErrorIs(mt, err, repository.ErrInvalidPage)
	})

	mt.Run("GetSorted rejects bad field", func(mt *mtest.T) {
		_, err := newRepo(mt).GetSorted(ctx, "price; drop", false)
		assert.ErrorIs(mt, err, repository.ErrInvalidField)
	})

	mt.Run("Count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := newRepo(mt).Count(ctx, repository.Like("name", "%lamp"))
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("Exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		ok, err := newRepo(mt).Exists(ctx, repository.Eq("name", "desk"))
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("query failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		_, err := newRepo(mt).GetAll(ctx)
		require.Error(mt, err)
		assert.Equal(mt, repository.ErrorQuery, repository.TypeOf(err))
	})
}

func TestRepositoryWrites(t *testing.T) {
	ctx := context.Background()
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Add", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := newRepo(mt).Add(ctx, &product{ID: "p1", Name: "desk lamp", Price: 25})
		assert.NoError(mt, err)
	})

	mt.Run("Add nil", func(mt *mtest.T) {
		assert.ErrorIs(mt, newRepo(mt).Add(ctx, nil), repository.ErrNilEntity)
	})

	mt.Run("Add duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key",
		}))

		err := newRepo(mt).Add(ctx, &product{ID: "p1"})
		require.Error(mt, err)
		assert.True(mt, repository.IsConstraintViolation(err))
	})

	mt.Run("Update", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := newRepo(mt).Update(ctx, &product{ID: "p1", Name: "desk lamp", Price: 30})
		assert.NoError(mt, err)
	})

	mt.Run("Update stale", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := newRepo(mt).Update(ctx, &product{ID: "gone"})
		require.Error(mt, err)
		assert.True(mt, repository.IsConcurrency(err))
		assert.ErrorIs(mt, err, repository.ErrStale)
	})

	mt.Run("DeleteByID", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, newRepo(mt).DeleteByID(ctx, "p1"))
	})

	mt.Run("AddRange", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := newRepo(mt).AddRange(ctx, []*product{{ID: "p1"}, {ID: "p2"}})
		assert.NoError(mt, err)
	})

	mt.Run("AddRange empty sends nothing", func(mt *mtest.T) {
		assert.NoError(mt, newRepo(mt).AddRange(ctx, nil))
	})

	mt.Run("AddRange nil element", func(mt *mtest.T) {
		err := newRepo(mt).AddRange(ctx, []*product{{ID: "p1"}, nil})
		assert.ErrorIs(mt, err, repository.ErrNilEntity)
	})

	mt.Run("UpdateRange stale", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := newRepo(mt).UpdateRange(ctx, []*product{{ID: "p1"}, {ID: "gone"}})
		require.Error(mt, err)
		assert.True(mt, repository.IsConcurrency(err))
	})

	mt.Run("DeleteWhere", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		n, err := newRepo(mt).DeleteWhere(ctx, repository.Lt("price", 10))
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})
}
