package handler

import "github.com/shopspring/decimal"

// CreateTransactionRequest represents the request body for creating a
// transaction. Amount is a pointer so a missing field can be rejected
// instead of silently reading as zero.
type CreateTransactionRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        string           `json:"type"`
}

// UpdateTransactionRequest represents a partial update: absent fields leave
// the stored values unchanged.
type UpdateTransactionRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Code        int    `json:"code"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"requestId"`
}
