// Package mocks holds testify mocks shared by the test suites.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/finledger/transaction-service/internal/domain/entity"
	"github.com/finledger/transaction-service/internal/domain/repository"
)

// MockTransactionRepository mocks the TransactionRepository interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Store(ctx context.Context, tx *entity.Transaction) (uint64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uint64) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindPage(ctx context.Context, q repository.PageQuery) (*repository.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Page), args.Error(1)
}

func (m *MockTransactionRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIdempotencyGuard mocks the service.IdempotencyGuard interface
type MockIdempotencyGuard struct {
	mock.Mock
}

func (m *MockIdempotencyGuard) Check(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockIdempotencyGuard) Release(key string) {
	m.Called(key)
}

// MockListingCache mocks the service.ListingCache interface
type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Get(q repository.PageQuery) (*repository.Page, bool) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*repository.Page), args.Bool(1)
}

func (m *MockListingCache) Put(q repository.PageQuery, page *repository.Page) {
	m.Called(q, page)
}

func (m *MockListingCache) Invalidate() {
	m.Called()
}
