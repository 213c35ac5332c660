package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finledger/transaction-service/internal/domain/apperr"
	"github.com/finledger/transaction-service/internal/domain/entity"
	"github.com/finledger/transaction-service/internal/domain/repository"
)

// IdempotencyGuard tracks consumed idempotency keys.
type IdempotencyGuard interface {
	// Check consumes key, failing if it is empty or already consumed.
	Check(key string) error

	// Release frees a consumed key after the guarded operation failed.
	Release(key string)
}

// ListingCache caches paginated listing results.
type ListingCache interface {
	Get(q repository.PageQuery) (*repository.Page, bool)
	Put(q repository.PageQuery, page *repository.Page)
	Invalidate()
}

// CreateTransactionInput carries the fields for a new transaction. Amount is
// a pointer so an absent amount is distinguishable from zero.
type CreateTransactionInput struct {
	Description string
	Amount      *decimal.Decimal
	Type        entity.Type
}

// UpdateTransactionInput carries a partial update: nil fields are left
// unchanged on the stored record.
type UpdateTransactionInput struct {
	Description *string
	Amount      *decimal.Decimal
	Type        *entity.Type
}

// sortableFields is the closed set of fields a listing may sort by.
var sortableFields = map[string]bool{
	"id":          true,
	"description": true,
	"amount":      true,
	"type":        true,
	"createdAt":   true,
	"updatedAt":   true,
}

// TransactionService handles business logic for transactions: validation,
// idempotent creation, persistence, and listing-cache invalidation.
type TransactionService struct {
	repo  repository.TransactionRepository
	guard IdempotencyGuard
	cache ListingCache
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(repo repository.TransactionRepository, guard IdempotencyGuard, cache ListingCache) *TransactionService {
	return &TransactionService{repo: repo, guard: guard, cache: cache}
}

// Create validates and persists a new transaction under idempotency
// protection. The key is consumed before the operation runs, which closes the
// race between concurrent requests sharing a fresh key; any failure after the
// check releases the key so the client can retry with it.
func (s *TransactionService) Create(ctx context.Context, in CreateTransactionInput, idempotencyKey string) (*entity.Transaction, error) {
	if err := s.guard.Check(idempotencyKey); err != nil {
		return nil, err
	}

	if in.Amount == nil {
		s.guard.Release(idempotencyKey)
		return nil, apperr.Validation("amount must not be empty")
	}

	now := time.Now().UTC()
	tx := &entity.Transaction{
		Description: in.Description,
		Amount:      *in.Amount,
		Type:        in.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := tx.Validate(); err != nil {
		s.guard.Release(idempotencyKey)
		return nil, err
	}

	if _, err := s.repo.Store(ctx, tx); err != nil {
		s.guard.Release(idempotencyKey)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.cache.Invalidate()

	return tx, nil
}

// Update applies the non-nil fields of in to the stored transaction,
// refreshes UpdatedAt, and invalidates the listing cache.
func (s *TransactionService) Update(ctx context.Context, id uint64, in UpdateTransactionInput) (*entity.Transaction, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		tx.Description = *in.Description
	}
	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
	if in.Type != nil {
		tx.Type = *in.Type
	}
	tx.UpdatedAt = time.Now().UTC()

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.Store(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.cache.Invalidate()

	return tx, nil
}

// GetByID retrieves a transaction by ID. Single-item reads bypass the
// listing cache.
func (s *TransactionService) GetByID(ctx context.Context, id uint64) (*entity.Transaction, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns one sorted page of transactions, serving from the cache when
// the exact query tuple was cached and is still fresh.
func (s *TransactionService) List(ctx context.Context, q repository.PageQuery) (*repository.Page, error) {
	if err := validatePageQuery(q); err != nil {
		return nil, err
	}

	if page, ok := s.cache.Get(q); ok {
		return page, nil
	}

	page, err := s.repo.FindPage(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	s.cache.Put(q, page)

	return page, nil
}

// Delete removes a transaction by ID and invalidates the listing cache.
func (s *TransactionService) Delete(ctx context.Context, id uint64) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check transaction existence: %w", err)
	}
	if !exists {
		return apperr.TransactionNotFound()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.cache.Invalidate()

	return nil
}

func validatePageQuery(q repository.PageQuery) error {
	if q.Page < 0 {
		return apperr.Validation("page must not be negative")
	}
	if q.Size < 1 {
		return apperr.Validation("size must be at least 1")
	}
	if !sortableFields[q.SortField] {
		return apperr.Validation(fmt.Sprintf("unknown sort field: %s", q.SortField))
	}
	if q.SortDir != repository.SortAsc && q.SortDir != repository.SortDesc {
		return apperr.Validation("sort direction must be asc or desc")
	}
	return nil
}
