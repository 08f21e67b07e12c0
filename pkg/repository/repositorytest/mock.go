// Package repositorytest provides testify mocks of the repository contracts
// for tests of code that depends on them.
package repositorytest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// MockStore mocks repository.Store.
type MockStore[T any, K comparable] struct {
	mock.Mock
}

var _ repository.Store[struct{ ID int }, int] = (*MockStore[struct{ ID int }, int])(nil)

func (m *MockStore[T, K]) entity(args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockStore[T, K]) entities(args mock.Arguments) ([]T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockStore[T, K]) Get(ctx context.Context, filter repository.Filter) (*T, error) {
	return m.entity(m.Called(ctx, filter))
}

func (m *MockStore[T, K]) List(ctx context.Context, filter repository.Filter) ([]T, error) {
	return m.entities(m.Called(ctx, filter))
}

func (m *MockStore[T, K]) GetByID(ctx context.Context, id K) (*T, error) {
	return m.entity(m.Called(ctx, id))
}

func (m *MockStore[T, K]) GetAll(ctx context.Context) ([]T, error) {
	return m.entities(m.Called(ctx))
}

func (m *MockStore[T, K]) Add(ctx context.Context, entity *T) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockStore[T, K]) Update(ctx context.Context, entity *T) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockStore[T, K]) Delete(ctx context.Context, entity *T) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockStore[T, K]) DeleteByID(ctx context.Context, id K) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore[T, K]) AddRange(ctx context.Context, entities []*T) error {
	return m.Called(ctx, entities).Error(0)
}

func (m *MockStore[T, K]) UpdateRange(ctx context.Context, entities []*T) error {
	return m.Called(ctx, entities).Error(0)
}

func (m *MockStore[T, K]) DeleteRange(ctx context.Context, entities []*T) error {
	return m.Called(ctx, entities).Error(0)
}

func (m *MockStore[T, K]) DeleteWhere(ctx context.Context, filter repository.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T, K]) Find(ctx context.Context, filter repository.Filter) ([]T, error) {
	return m.entities(m.Called(ctx, filter))
}

func (m *MockStore[T, K]) FindWithTracking(ctx context.Context, filter repository.Filter, tracking bool) ([]T, error) {
	return m.entities(m.Called(ctx, filter, tracking))
}

func (m *MockStore[T, K]) GetByIDWithTracking(ctx context.Context, id K, tracking bool) (*T, error) {
	return m.entity(m.Called(ctx, id, tracking))
}

func (m *MockStore[T, K]) GetSorted(ctx context.Context, field string, desc bool) ([]T, error) {
	return m.entities(m.Called(ctx, field, desc))
}

func (m *MockStore[T, K]) GetPaged(ctx context.Context, pageIndex, pageSize int) ([]T, error) {
	return m.entities(m.Called(ctx, pageIndex, pageSize))
}

func (m *MockStore[T, K]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T, K]) Exists(ctx context.Context, filter repository.Filter) (bool, error) {
	args := m.Called(ctx, filter)
	return args.Bool(0), args.Error(1)
}

// MockUnitOfWork mocks repository.UnitOfWork.
type MockUnitOfWork struct {
	mock.Mock
}

var _ repository.UnitOfWork = (*MockUnitOfWork)(nil)

func (m *MockUnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUnitOfWork) Rollback() {
	m.Called()
}

func (m *MockUnitOfWork) Close() error {
	return m.Called().Error(0)
}
