package gormrepo_test

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/gormrepo"
)

type product struct {
	ID    string `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex"`
	Price float64
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := gormrepo.NewConfig()
	cfg.Driver = gormrepo.DriverSQLite
	cfg.DSN = ":memory:"
	// A single connection keeps the in-memory database alive and shared.
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 0

	db, err := gormrepo.Open(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, gormrepo.Migrate(context.Background(), db, &product{}))
	t.Cleanup(func() { _ = gormrepo.Close(db) })
	return db
}

func seed(t *testing.T, repo *gormrepo.Repository[product, string]) {
	t.Helper()
	require.NoError(t, repo.AddRange(context.Background(), []*product{
		{ID: "p1", Name: "desk lamp", Price: 25},
		{ID: "p2", Name: "floor lamp", Price: 80},
		{ID: "p3", Name: "chair", Price: 45},
		{ID: "p4", Name: "desk", Price: 150},
		{ID: "p5", Name: "pencil", Price: 2},
	}))
}

func names(products []product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo, err := gormrepo.New[product, string](openDB(t))
	require.NoError(t, err)
	assert.Equal(t, "products", repo.Table())

	t.Run("add and get", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, &product{ID: "a", Name: "lamp", Price: 10}))

		got, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "lamp", got.Name)

		tracked, err := repo.GetByIDWithTracking(ctx, "a", false)
		require.NoError(t, err)
		assert.Equal(t, got, tracked)
	})

	t.Run("missing is nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, &product{ID: "a", Name: "lamp", Price: 12.5}))
		got, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 12.5, got.Price)
	})

	t.Run("update missing is a concurrency error", func(t *testing.T) {
		err := repo.Update(ctx, &product{ID: "ghost", Name: "ghost"})
		require.Error(t, err)
		assert.True(t, repository.IsConcurrency(err))
		assert.ErrorIs(t, err, repository.ErrStale)
	})

	t.Run("duplicate name fails", func(t *testing.T) {
		err := repo.Add(ctx, &product{ID: "b", Name: "lamp"})
		require.Error(t, err)
		var repoErr *repository.Error
		require.ErrorAs(t, err, &repoErr)
		assert.Equal(t, "product", repoErr.Entity)
		assert.Equal(t, "Add", repoErr.Operation)
		assert.Contains(t, []repository.ErrorType{repository.ErrorAdd, repository.ErrorConstraintViolation}, repoErr.Type)
	})

	t.Run("nil entity", func(t *testing.T) {
		assert.ErrorIs(t, repo.Add(ctx, nil), repository.ErrNilEntity)
		assert.ErrorIs(t, repo.Update(ctx, nil), repository.ErrNilEntity)
		assert.ErrorIs(t, repo.Delete(ctx, nil), repository.ErrNilEntity)
		assert.ErrorIs(t, repo.AddRange(ctx, []*product{nil}), repository.ErrNilEntity)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, &product{ID: "a"}))
		got, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, repo.DeleteByID(ctx, "a"))
	})
}

func TestRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	repo, err := gormrepo.New[product, string](openDB(t))
	require.NoError(t, err)
	seed(t, repo)

	t.Run("find", func(t *testing.T) {
		got, err := repo.Find(ctx, repository.And(
			repository.Gte("price", 20),
			repository.Like("name", "%lamp%"),
		))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"desk lamp", "floor lamp"}, names(got))
	})

	t.Run("or and not", func(t *testing.T) {
		got, err := repo.List(ctx, repository.Or(
			repository.Lt("price", 5),
			repository.Not(repository.Lte("price", 100)),
		))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"pencil", "desk"}, names(got))
	})

	t.Run("in", func(t *testing.T) {
		got, err := repo.FindWithTracking(ctx, repository.In("id", []string{"p1", "p3"}), true)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"desk lamp", "chair"}, names(got))
	})

	t.Run("nil filter lists all", func(t *testing.T) {
		got, err := repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("get first match", func(t *testing.T) {
		got, err := repo.Get(ctx, repository.Eq("name", "chair"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "p3", got.ID)

		none, err := repo.Get(ctx, repository.Eq("name", "sofa"))
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("invalid field", func(t *testing.T) {
		_, err := repo.Find(ctx, repository.Eq("name; --", "x"))
		assert.ErrorIs(t, err, repository.ErrInvalidField)
	})

	t.Run("sorted", func(t *testing.T) {
		asc, err := repo.GetSorted(ctx, "price", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"pencil", "desk lamp", "chair", "floor lamp", "desk"}, names(asc))

		desc, err := repo.GetSorted(ctx, "price", true)
		require.NoError(t, err)
		assert.Equal(t, "desk", desc[0].Name)

		_, err = repo.GetSorted(ctx, "price desc", false)
		assert.ErrorIs(t, err, repository.ErrInvalidField)
	})

	t.Run("paged", func(t *testing.T) {
		page, err := repo.GetPaged(ctx, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"chair", "desk"}, names(page))

		last, err := repo.GetPaged(ctx, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"pencil"}, names(last))

		_, err = repo.GetPaged(ctx, 0, 2)
		assert.ErrorIs(t, err, repository.ErrInvalidPage)

		_, err = repo.GetPaged(ctx, 3, math.MaxInt/2+1)
		assert.ErrorIs(t, err, repository.ErrInvalidPage)
	})

	t.Run("count and exists", func(t *testing.T) {
		n, err := repo.Count(ctx, repository.Gt("price", 40))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		ok, err := repo.Exists(ctx, repository.Eq("name", "desk"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, repository.Eq("name", "sofa"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("native query", func(t *testing.T) {
		var total float64
		require.NoError(t, repo.Query(ctx).Select("SUM(price)").Scan(&total).Error)
		assert.Equal(t, 302.0, total)
	})
}

func TestRepositoryBulk(t *testing.T) {
	ctx := context.Background()
	repo, err := gormrepo.New[product, string](openDB(t))
	require.NoError(t, err)
	seed(t, repo)

	t.Run("update range", func(t *testing.T) {
		require.NoError(t, repo.UpdateRange(ctx, []*product{
			{ID: "p1", Name: "desk lamp", Price: 30},
			{ID: "p2", Name: "floor lamp", Price: 90},
		}))
		got, err := repo.GetByID(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 90.0, got.Price)
	})

	t.Run("update range is atomic", func(t *testing.T) {
		err := repo.UpdateRange(ctx, []*product{
			{ID: "p1", Name: "desk lamp", Price: 1},
			{ID: "ghost", Name: "ghost"},
		})
		require.Error(t, err)

		got, err := repo.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 30.0, got.Price)
	})

	t.Run("delete range", func(t *testing.T) {
		require.NoError(t, repo.DeleteRange(ctx, []*product{{ID: "p1"}, {ID: "p2"}}))
		n, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("empty ranges are no-ops", func(t *testing.T) {
		assert.NoError(t, repo.AddRange(ctx, nil))
		assert.NoError(t, repo.UpdateRange(ctx, []*product{}))
		assert.NoError(t, repo.DeleteRange(ctx, nil))
	})

	t.Run("delete where", func(t *testing.T) {
		n, err := repo.DeleteWhere(ctx, repository.Lt("price", 50))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.DeleteWhere(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
