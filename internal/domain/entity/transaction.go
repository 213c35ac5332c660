package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finledger/transaction-service/internal/domain/apperr"
)

// Amounts serialize as JSON numbers, not decimal's default quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Type classifies a transaction as money coming in or going out.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// MaxDescriptionLength is the longest description the store accepts.
const MaxDescriptionLength = 255

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents a single income or expense entry.
type Transaction struct {
	ID          uint64          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate ensures the transaction meets all storage requirements.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return apperr.Validation("description must not be empty")
	}

	if len(t.Description) > MaxDescriptionLength {
		return apperr.Validation("description must not exceed 255 characters")
	}

	if !t.Amount.IsPositive() {
		return apperr.Validation("amount must be a positive value")
	}

	if !t.Type.Valid() {
		return apperr.Validation("type must be INCOME or EXPENSE")
	}

	return nil
}
