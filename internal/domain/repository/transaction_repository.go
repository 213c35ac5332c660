package repository

import (
	"context"

	"github.com/finledger/transaction-service/internal/domain/entity"
)

// SortDirection is the order applied to a listing sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PageQuery describes one paginated listing request. Page is zero-based.
type PageQuery struct {
	Page      int
	Size      int
	SortField string
	SortDir   SortDirection
}

// Page is one page of transactions plus the totals for the whole store.
type Page struct {
	Items         []*entity.Transaction `json:"items"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
	TotalElements int64                 `json:"totalElements"`
	TotalPages    int                   `json:"totalPages"`
}

// TransactionRepository defines the interface for transaction storage
type TransactionRepository interface {
	// Store saves a transaction and returns its ID. A zero ID means the
	// repository assigns the next one and sets it on the transaction.
	Store(ctx context.Context, transaction *entity.Transaction) (uint64, error)

	// FindByID retrieves a transaction by its unique identifier.
	FindByID(ctx context.Context, id uint64) (*entity.Transaction, error)

	// FindPage retrieves one sorted page of transactions.
	FindPage(ctx context.Context, q PageQuery) (*Page, error)

	// Exists reports whether a transaction with the given ID is stored.
	Exists(ctx context.Context, id uint64) (bool, error)

	// Delete removes a transaction by ID.
	Delete(ctx context.Context, id uint64) error
}
