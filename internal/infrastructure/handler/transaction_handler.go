package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/finledger/transaction-service/internal/application/service"
	"github.com/finledger/transaction-service/internal/domain/apperr"
	"github.com/finledger/transaction-service/internal/domain/entity"
	"github.com/finledger/transaction-service/internal/domain/repository"
	"github.com/finledger/transaction-service/internal/infrastructure/logger"
	"github.com/finledger/transaction-service/internal/infrastructure/middleware"
)

const idempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler handles HTTP requests for transactions
type TransactionHandler struct {
	service *service.TransactionService
	logger  logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service *service.TransactionService, log logger.Logger) *TransactionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionHandler{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers the transaction handler routes
func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	router.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	router.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	router.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	router.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")

	h.logger.Info("Transaction routes registered", map[string]interface{}{
		"routes": []string{
			"GET /transactions",
			"GET /transactions/{id}",
			"POST /transactions",
			"PUT /transactions/{id}",
			"DELETE /transactions/{id}",
		},
	})
}

// ListTransactions handles the paginated listing of transactions
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	query, err := parsePageQuery(r)
	if err != nil {
		h.logger.Warn("Invalid listing parameters", map[string]interface{}{
			"request_id": requestID,
			"query":      r.URL.RawQuery,
			"error":      err.Error(),
		})
		h.sendDomainError(w, err, requestID)
		return
	}

	page, err := h.service.List(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, "list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetTransaction handles retrieving a transaction by ID
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		h.sendDomainError(w, err, requestID)
		return
	}

	tx, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, "get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// CreateTransaction handles the creation of a new transaction
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON",
			int(apperr.CodeValidation), http.StatusBadRequest, requestID)
		return
	}

	input := service.CreateTransactionInput{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        entity.Type(req.Type),
	}

	tx, err := h.service.Create(r.Context(), input, r.Header.Get(idempotencyKeyHeader))
	if err != nil {
		h.handleServiceError(w, r, "create transaction", err)
		return
	}

	h.logger.Info("Transaction created", map[string]interface{}{
		"request_id": requestID,
		"id":         tx.ID,
	})

	writeJSON(w, http.StatusOK, tx)
}

// UpdateTransaction handles a partial update of an existing transaction
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		h.sendDomainError(w, err, requestID)
		return
	}

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON",
			int(apperr.CodeValidation), http.StatusBadRequest, requestID)
		return
	}

	input := service.UpdateTransactionInput{
		Description: req.Description,
		Amount:      req.Amount,
	}
	if req.Type != nil {
		t := entity.Type(*req.Type)
		input.Type = &t
	}

	tx, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, r, "update transaction", err)
		return
	}

	h.logger.Info("Transaction updated", map[string]interface{}{
		"request_id": requestID,
		"id":         tx.ID,
	})

	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles removing a transaction by ID
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		h.sendDomainError(w, err, requestID)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, "delete transaction", err)
		return
	}

	h.logger.Info("Transaction deleted", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	w.WriteHeader(http.StatusNoContent)
}

// parseID parses a path ID, which must be a positive integer.
func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation("id must be a positive integer")
	}
	return id, nil
}

// parsePageQuery reads page, size, and sort query parameters, applying the
// defaults page=0, size=10, sort=id,desc.
func parsePageQuery(r *http.Request) (repository.PageQuery, error) {
	q := repository.PageQuery{Page: 0, Size: 10}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return q, apperr.Validation("page must be an integer")
		}
		q.Page = page
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return q, apperr.Validation("size must be an integer")
		}
		q.Size = size
	}

	sortField, sortDir, err := parseSort(r.URL.Query().Get("sort"))
	if err != nil {
		return q, err
	}
	q.SortField = sortField
	q.SortDir = sortDir

	return q, nil
}

// parseSort parses a sort parameter in "field,direction" format.
func parseSort(raw string) (string, repository.SortDirection, error) {
	if raw == "" {
		return "id", repository.SortDesc, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", apperr.Validation("sort must use the format 'field,asc|desc'")
	}

	dir := repository.SortDirection(strings.ToLower(parts[1]))
	if dir != repository.SortAsc && dir != repository.SortDesc {
		return "", "", apperr.Validation("sort direction must be asc or desc")
	}

	return parts[0], dir, nil
}

// handleServiceError maps a service error onto the HTTP response, logging
// domain failures as warnings and everything else as internal errors.
func (h *TransactionHandler) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var ae *apperr.Error
	if errors.As(err, &ae) {
		h.logger.Warn("Request rejected", map[string]interface{}{
			"request_id": requestID,
			"operation":  op,
			"code":       int(ae.Code),
			"error":      ae.Message,
		})
		sendErrorResponse(w, h.logger, ae.Message, "", int(ae.Code), ae.Status, requestID)
		return
	}

	h.logger.Error("Unexpected error", map[string]interface{}{
		"request_id": requestID,
		"operation":  op,
		"error":      err.Error(),
	})
	sendErrorResponse(w, h.logger, "Internal server error",
		"An unexpected error occurred while handling the request",
		int(apperr.CodeInternal), http.StatusInternalServerError, requestID)
}

// sendDomainError writes an already-typed domain error without extra logging
// context.
func (h *TransactionHandler) sendDomainError(w http.ResponseWriter, err error, requestID string) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal("internal server error")
	}
	sendErrorResponse(w, h.logger, ae.Message, "", int(ae.Code), ae.Status, requestID)
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, code, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeJSON(w, statusCode, ErrorResponse{
		Error:       message,
		Code:        code,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
