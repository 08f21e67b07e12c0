package cached_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/cached"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/repositorytest"
)

type widget struct {
	ID   string
	Name string
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		inner := &repositorytest.MockStore[widget, string]{}
		inner.On("GetByID", mock.Anything, "w1").Return(&widget{ID: "w1", Name: "gear"}, nil).Once()
		store := cached.New[widget, string](inner, time.Minute)

		first, err := store.GetByID(ctx, "w1")
		require.NoError(t, err)
		second, err := store.GetByID(ctx, "w1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.NotSame(t, first, second)
		inner.AssertExpectations(t)
	})

	t.Run("missing entity is not cached", func(t *testing.T) {
		inner := &repositorytest.MockStore[widget, string]{}
		inner.On("GetByID", mock.Anything, "nope").Return(nil, nil).Twice()
		store := cached.New[widget, string](inner, time.Minute)

		for range 2 {
			got, err := store.GetByID(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, got)
		}
		assert.Zero(t, store.Len())
		inner.AssertExpectations(t)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &repositorytest.MockStore[widget, string]{}
		boom := errors.New("boom")
		inner.On("GetByID", mock.Anything, "w1").Return(nil, boom).Once()
		store := cached.New[widget, string](inner, time.Minute)

		_, err := store.GetByID(ctx, "w1")
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, store.Len())
	})

	t.Run("tracking bypasses cache", func(t *testing.T) {
		inner := &repositorytest.MockStore[widget, string]{}
		inner.On("GetByIDWithTracking", mock.Anything, "w1", true).Return(&widget{ID: "w1"}, nil).Twice()
		store := cached.New[widget, string](inner, time.Minute)

		for range 2 {
			_, err := store.GetByIDWithTracking(ctx, "w1", true)
			require.NoError(t, err)
		}
		inner.AssertExpectations(t)
	})
}

func TestWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := &repositorytest.MockStore[widget, string]{}
	inner.On("GetAll", mock.Anything).Return([]widget{{ID: "w1"}}, nil).Twice()
	inner.On("Add", mock.Anything, mock.Anything).Return(nil).Once()
	store := cached.New[widget, string](inner, time.Minute)

	_, err := store.GetAll(ctx)
	require.NoError(t, err)
	_, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Add(ctx, &widget{ID: "w2"}))
	assert.Zero(t, store.Len())

	_, err = store.GetAll(ctx)
	require.NoError(t, err)
	inner.AssertExpectations(t)
}

func TestFailedWriteStillInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &repositorytest.MockStore[widget, string]{}
	inner.On("GetByID", mock.Anything, "w1").Return(&widget{ID: "w1"}, nil).Once()
	inner.On("DeleteWhere", mock.Anything, mock.Anything).Return(int64(0), repository.ErrReadOnly).Once()
	store := cached.New[widget, string](inner, time.Minute)

	_, err := store.GetByID(ctx, "w1")
	require.NoError(t, err)

	_, err = store.DeleteWhere(ctx, repository.Eq("Name", "gear"))
	assert.ErrorIs(t, err, repository.ErrReadOnly)
	assert.Zero(t, store.Len())
}

func TestReadOverlappingWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &repositorytest.MockStore[widget, string]{}
	reading := make(chan struct{})
	release := make(chan struct{})
	inner.On("GetByID", mock.Anything, "w1").Return(&widget{ID: "w1", Name: "gear"}, nil).
		Run(func(mock.Arguments) {
			close(reading)
			<-release
		}).Once()
	inner.On("GetByID", mock.Anything, "w1").Return(&widget{ID: "w1", Name: "cog"}, nil).Once()
	inner.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	store := cached.New[widget, string](inner, time.Minute)

	done := make(chan *widget)
	go func() {
		w, _ := store.GetByID(ctx, "w1")
		done <- w
	}()

	<-reading
	require.NoError(t, store.Update(ctx, &widget{ID: "w1", Name: "cog"}))
	close(release)
	assert.Equal(t, "gear", (<-done).Name)
	assert.Zero(t, store.Len())

	w, err := store.GetByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "cog", w.Name)
	inner.AssertExpectations(t)
}
