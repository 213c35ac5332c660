package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/transaction-service/internal/application/service"
	"github.com/finledger/transaction-service/internal/infrastructure/cache"
	"github.com/finledger/transaction-service/internal/infrastructure/db"
	"github.com/finledger/transaction-service/internal/infrastructure/handler"
	"github.com/finledger/transaction-service/internal/infrastructure/logger"
	"github.com/finledger/transaction-service/internal/infrastructure/middleware"
)

type transactionBody struct {
	ID          uint64          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type pageBody struct {
	Items         []transactionBody `json:"items"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

type errorBody struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId"`
}

// setupTestServer wires the full stack over a temporary Badger database.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	opts.SyncWrites = false

	badgerDB, err := badger.Open(opts)
	require.NoError(t, err)

	txRepo, err := db.NewBadgerTransactionRepository(badgerDB)
	require.NoError(t, err)

	guard := cache.NewIdempotencyGuard(time.Minute)
	listing := cache.NewListingCache(16, time.Minute)
	txService := service.NewTransactionService(txRepo, guard, listing)

	log := logger.NewJSONLogger(io.Discard, logger.ErrorLevel)
	txHandler := handler.NewTransactionHandler(txService, log)

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	txHandler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		txRepo.Close()
		badgerDB.Close()
	})

	return server
}

func createTransaction(t *testing.T, server *httptest.Server, body, key string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/transactions", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestIdempotentCreation(t *testing.T) {
	server := setupTestServer(t)
	body := `{"description":"Salary","amount":100.00,"type":"INCOME"}`

	// First request with key k1 succeeds
	resp := createTransaction(t, server, body, "k1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var created transactionBody
	decodeBody(t, resp, &created)
	assert.Equal(t, uint64(1), created.ID)
	assert.Equal(t, "Salary", created.Description)
	assert.True(t, created.Amount.Equal(decimal.NewFromFloat(100.00)))
	assert.Equal(t, "INCOME", created.Type)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// Repeating with k1 is a conflict
	resp = createTransaction(t, server, body, "k1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var conflict errorBody
	decodeBody(t, resp, &conflict)
	assert.Equal(t, 3002, conflict.Code)
	assert.NotEmpty(t, conflict.RequestID)

	// A fresh key k2 creates a second record
	resp = createTransaction(t, server, body, "k2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var second transactionBody
	decodeBody(t, resp, &second)
	assert.Equal(t, uint64(2), second.ID)

	// Missing header is rejected before anything else
	resp = createTransaction(t, server, body, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var missing errorBody
	decodeBody(t, resp, &missing)
	assert.Equal(t, 3001, missing.Code)
}

func TestCreateValidation(t *testing.T) {
	server := setupTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"zero amount", `{"description":"Salary","amount":0,"type":"INCOME"}`},
		{"negative amount", `{"description":"Salary","amount":-5,"type":"INCOME"}`},
		{"missing amount", `{"description":"Salary","type":"INCOME"}`},
		{"blank description", `{"description":"  ","amount":10,"type":"INCOME"}`},
		{"missing type", `{"description":"Salary","amount":10}`},
		{"unknown type", `{"description":"Salary","amount":10,"type":"TRANSFER"}`},
		{"malformed json", `{"description":`},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := createTransaction(t, server, tc.body, fmt.Sprintf("validation-%d", i))
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// A failed attempt must not consume its key
	resp := createTransaction(t, server, `{"description":"Salary","amount":0,"type":"INCOME"}`, "retry-key")
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = createTransaction(t, server, `{"description":"Salary","amount":10,"type":"INCOME"}`, "retry-key")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetTransaction(t *testing.T) {
	server := setupTestServer(t)

	resp := createTransaction(t, server, `{"description":"Rent","amount":900.50,"type":"EXPENSE"}`, "k1")
	var created transactionBody
	decodeBody(t, resp, &created)

	t.Run("Found", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/transactions/%d", server.URL, created.ID))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		// Amounts are JSON numbers on the wire, not quoted strings
		assert.Contains(t, string(raw), `"amount":900.50`)

		var got transactionBody
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, created.ID, got.ID)
		assert.True(t, got.Amount.Equal(decimal.NewFromFloat(900.50)))
	})

	t.Run("Not found", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/transactions/999")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorBody
		decodeBody(t, resp, &body)
		assert.Equal(t, 2001, body.Code)
	})

	t.Run("Invalid id", func(t *testing.T) {
		for _, raw := range []string{"0", "-1", "abc"} {
			resp, err := http.Get(server.URL + "/transactions/" + raw)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	server := setupTestServer(t)

	resp := createTransaction(t, server, `{"description":"Groceries","amount":55.20,"type":"INCOME"}`, "k1")
	var created transactionBody
	decodeBody(t, resp, &created)

	doPut := func(id string, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, server.URL+"/transactions/"+id, bytes.NewBufferString(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("Partial update preserves description", func(t *testing.T) {
		resp := doPut("1", `{"amount":200.00,"type":"EXPENSE"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated transactionBody
		decodeBody(t, resp, &updated)
		assert.Equal(t, "Groceries", updated.Description)
		assert.True(t, updated.Amount.Equal(decimal.NewFromFloat(200.00)))
		assert.Equal(t, "EXPENSE", updated.Type)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	})

	t.Run("Not found", func(t *testing.T) {
		resp := doPut("999", `{"amount":10}`)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Invalid id", func(t *testing.T) {
		resp := doPut("0", `{"amount":10}`)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Invalid amount", func(t *testing.T) {
		resp := doPut("1", `{"amount":-1}`)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteTransaction(t *testing.T) {
	server := setupTestServer(t)

	resp := createTransaction(t, server, `{"description":"Temp","amount":1,"type":"EXPENSE"}`, "k1")
	resp.Body.Close()

	doDelete := func(id string) *http.Response {
		req, err := http.NewRequest(http.MethodDelete, server.URL+"/transactions/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = doDelete("1")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Delete then get both report not found
	resp = doDelete("1")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	getResp, err := http.Get(server.URL + "/transactions/1")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestListTransactions(t *testing.T) {
	server := setupTestServer(t)

	t.Run("Empty store", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/transactions?page=0&size=10")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageBody
		decodeBody(t, resp, &page)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(0), page.TotalElements)
	})

	for i, amount := range []string{"30", "10", "20"} {
		body := fmt.Sprintf(`{"description":"tx-%d","amount":%s,"type":"EXPENSE"}`, i, amount)
		resp := createTransaction(t, server, body, fmt.Sprintf("list-%d", i))
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("Sorted by amount ascending", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/transactions?sort=amount,asc")
		require.NoError(t, err)

		var page pageBody
		decodeBody(t, resp, &page)
		require.Len(t, page.Items, 3)
		assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(10)))
		assert.True(t, page.Items[2].Amount.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, int64(3), page.TotalElements)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("Defaults to id descending", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/transactions")
		require.NoError(t, err)

		var page pageBody
		decodeBody(t, resp, &page)
		require.Len(t, page.Items, 3)
		assert.Equal(t, uint64(3), page.Items[0].ID)
	})

	t.Run("Extreme page number yields an empty page", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/transactions?page=%d&size=10", server.URL, math.MaxInt))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageBody
		decodeBody(t, resp, &page)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(3), page.TotalElements)
	})

	t.Run("Invalid parameters", func(t *testing.T) {
		for _, query := range []string{
			"?page=-1",
			"?size=0",
			"?page=x",
			"?sort=amount",
			"?sort=amount,sideways",
			"?sort=balance,asc",
		} {
			resp, err := http.Get(server.URL + "/transactions" + query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %s", query)
		}
	})
}

// A cached page must reflect every subsequent write.
func TestListCacheInvalidationOnWrites(t *testing.T) {
	server := setupTestServer(t)

	listTotal := func() int64 {
		resp, err := http.Get(server.URL + "/transactions?page=0&size=10")
		require.NoError(t, err)
		var page pageBody
		decodeBody(t, resp, &page)
		return page.TotalElements
	}

	resp := createTransaction(t, server, `{"description":"first","amount":10,"type":"INCOME"}`, "c1")
	resp.Body.Close()
	assert.Equal(t, int64(1), listTotal())

	// Prime the cache, then write and list again with the same parameters
	assert.Equal(t, int64(1), listTotal())

	resp = createTransaction(t, server, `{"description":"second","amount":20,"type":"INCOME"}`, "c2")
	resp.Body.Close()
	assert.Equal(t, int64(2), listTotal())

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/transactions/1", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	assert.Equal(t, int64(1), listTotal())
}
