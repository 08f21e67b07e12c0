package metrics_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/metrics"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/repositorytest"
)

type widget struct {
	ID string
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewPedanticRegistry()
	c, err := metrics.NewCollector(reg, "test")
	require.NoError(t, err)

	inner := &repositorytest.MockStore[widget, string]{}
	inner.On("GetByID", mock.Anything, "w1").Return(&widget{ID: "w1"}, nil)
	inner.On("Update", mock.Anything, mock.Anything).
		Return(repository.NewError(repository.ErrorConcurrency, "widget", "Update", repository.ErrStale))
	store := metrics.Wrap[widget, string](inner, c)

	_, err = store.GetByID(ctx, "w1")
	require.NoError(t, err)
	_, err = store.GetByID(ctx, "w1")
	require.NoError(t, err)
	assert.Error(t, store.Update(ctx, &widget{ID: "w1"}))

	expected := `
# HELP test_repository_operations_total Total number of repository operations
# TYPE test_repository_operations_total counter
test_repository_operations_total{entity="widget",operation="GetByID"} 2
test_repository_operations_total{entity="widget",operation="Update"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_repository_operations_total"))

	expected = `
# HELP test_repository_errors_total Total number of failed repository operations
# TYPE test_repository_errors_total counter
test_repository_errors_total{entity="widget",operation="Update",type="concurrency"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_repository_errors_total"))

	n, err := testutil.GatherAndCount(reg, "test_repository_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metrics.NewCollector(reg, "test")
	require.NoError(t, err)
	second, err := metrics.NewCollector(reg, "test")
	require.NoError(t, err)

	inner := &repositorytest.MockStore[widget, string]{}
	inner.On("Count", mock.Anything, nil).Return(int64(3), nil)

	_, err = metrics.Wrap[widget, string](inner, first).Count(context.Background(), nil)
	require.NoError(t, err)
	_, err = metrics.Wrap[widget, string](inner, second).Count(context.Background(), nil)
	require.NoError(t, err)

	expected := `
# HELP test_repository_operations_total Total number of repository operations
# TYPE test_repository_operations_total counter
test_repository_operations_total{entity="widget",operation="Count"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_repository_operations_total"))
}
