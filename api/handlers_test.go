package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsolhenry/sales-stock-tracker/api"
	"github.com/dsolhenry/sales-stock-tracker/ledger"
	"github.com/dsolhenry/sales-stock-tracker/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	engine := ledger.New(
		ledger.WithPersistence(memory.New()),
		ledger.WithClock(func() time.Time {
			return time.Date(2025, time.March, 10, 9, 30, 0, 0, time.Local)
		}),
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewRouter(api.NewHandler(engine, logger))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func addProduct(t *testing.T, h http.Handler, name string, stock float64) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/products", api.CreateProductRequest{Name: name, InitialStock: stock})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func addSale(t *testing.T, h http.Handler, customer string, qty, price float64) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		Customer: customer, Product: "Rice", Quantity: qty, UnitPrice: price,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// PRODUCTS
// =============================================================================

func TestCreateProduct_ThenDuplicateConflicts(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/products", api.CreateProductRequest{Name: "Rice", InitialStock: 100})
	require.Equal(t, http.StatusCreated, rec.Code)
	levels := decode[[]api.StockLevelDTO](t, rec)
	require.Len(t, levels, 1)
	assert.Equal(t, "Rice", levels[0].Product)
	assert.Equal(t, float64(100), levels[0].Quantity)

	rec = doJSON(t, h, http.MethodPost, "/api/products", api.CreateProductRequest{Name: "Rice", InitialStock: 5})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateProduct_MissingName(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/products", api.CreateProductRequest{InitialStock: 5})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[api.ErrorResponse](t, rec).Error, "Name")
}

func TestAdjustStock(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)

	// Restock
	rec := doJSON(t, h, http.MethodPost, "/api/products/Rice/adjustments", api.AdjustStockRequest{Delta: 20})
	require.Equal(t, http.StatusOK, rec.Code)
	levels := decode[[]api.StockLevelDTO](t, rec)
	assert.Equal(t, float64(120), levels[0].Quantity)

	// Would go negative
	rec = doJSON(t, h, http.MethodPost, "/api/products/Rice/adjustments", api.AdjustStockRequest{Delta: -200})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown product
	rec = doJSON(t, h, http.MethodPost, "/api/products/Beans/adjustments", api.AdjustStockRequest{Delta: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SALES
// =============================================================================

func TestCreateSale(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)

	rec := doJSON(t, h, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		Customer: "Alice", Product: "Rice", Quantity: 2, UnitPrice: 500,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[api.SaleResponse](t, rec)
	assert.Equal(t, 1, resp.Sale.ID)
	assert.Equal(t, "credit", resp.Sale.Status)
	assert.Equal(t, float64(1000), resp.Sale.TotalAmount)
	assert.Equal(t, float64(1000), resp.Sale.Remaining)
	assert.Equal(t, "2025-03-10 09:30", resp.Sale.Date)
	assert.Equal(t, float64(1000), resp.TotalOutstanding)
}

func TestCreateSale_InsufficientStockConflicts(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 1)

	rec := doJSON(t, h, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		Customer: "Alice", Product: "Rice", Quantity: 2, UnitPrice: 500,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateSale_UnknownProductIsValidationFailure(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		Customer: "Alice", Product: "Rice", Quantity: 2, UnitPrice: 500,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSales_NewestFirstAndLimitValidation(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)
	addSale(t, h, "Alice", 1, 500)
	addSale(t, h, "Bob", 1, 300)

	rec := doJSON(t, h, http.MethodGet, "/api/sales?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sales := decode[[]api.SaleDTO](t, rec)
	require.Len(t, sales, 1)
	assert.Equal(t, "Alice", sales[0].Customer, "same-minute sales keep creation order")

	rec = doJSON(t, h, http.MethodGet, "/api/sales?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestCreatePayment_ProrationAndSettlement(t *testing.T) {
	// GIVEN: Alice owes 500 + 300
	// WHEN: Paying 600, then the remaining 200
	// THEN: First response shows the split; second settles her

	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)
	addSale(t, h, "Alice", 1, 500)
	addSale(t, h, "Alice", 1, 300)

	rec := doJSON(t, h, http.MethodPost, "/api/payments", api.CreatePaymentRequest{Customer: "Alice", Amount: 600})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[api.PaymentResponse](t, rec)
	assert.Equal(t, float64(600), resp.Applied)
	assert.Equal(t, float64(200), resp.RemainingBalance)
	assert.False(t, resp.Settled)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "paid", resp.Lines[0].Status)
	assert.Equal(t, "credit", resp.Lines[1].Status)
	assert.Equal(t, float64(200), resp.TotalOutstanding)

	rec = doJSON(t, h, http.MethodPost, "/api/payments", api.CreatePaymentRequest{Customer: "Alice", Amount: 200})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp = decode[api.PaymentResponse](t, rec)
	assert.True(t, resp.Settled)
	assert.Equal(t, float64(0), resp.TotalOutstanding)

	rec = doJSON(t, h, http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.CustomerBalanceDTO](t, rec))
}

func TestCreatePayment_Errors(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)
	addSale(t, h, "Alice", 1, 500)

	rec := doJSON(t, h, http.MethodPost, "/api/payments", api.CreatePaymentRequest{Customer: "Nobody", Amount: 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/payments", api.CreatePaymentRequest{Customer: "Alice", Amount: 9999})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/payments", api.CreatePaymentRequest{Customer: "Alice", Amount: -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// REPORTS & EXPORT
// =============================================================================

func TestSummaryReport(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)
	addSale(t, h, "Alice", 1, 500)
	addSale(t, h, "Bob", 1, 300)
	rec := doJSON(t, h, http.MethodPost, "/api/payments", api.CreatePaymentRequest{Customer: "Alice", Amount: 500})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[api.SummaryDTO](t, rec)
	assert.Equal(t, float64(300), summary.TotalOutstanding)
	assert.Equal(t, float64(800), summary.TotalSales)
	assert.Equal(t, float64(500), summary.TotalPaid)
	assert.Equal(t, 1, summary.CustomerCount)
	assert.Equal(t, 1, summary.ProductCount)

	rec = doJSON(t, h, http.MethodGet, "/api/reports/outstanding", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(300), decode[api.OutstandingDTO](t, rec).TotalOutstanding)
}

func TestExportSnapshot(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)
	addSale(t, h, "Alice", 1, 500)

	rec := doJSON(t, h, http.MethodGet, "/api/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales_stock_data.json")

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "sales_data")
	assert.Contains(t, doc, "stock_data")
	assert.Contains(t, doc, "customers")
}

func TestLowStockFilter(t *testing.T) {
	h := newTestServer(t)
	addProduct(t, h, "Rice", 100)
	addProduct(t, h, "Beans", 3)

	rec := doJSON(t, h, http.MethodGet, "/api/products?low=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	levels := decode[[]api.StockLevelDTO](t, rec)
	require.Len(t, levels, 1)
	assert.Equal(t, "Beans", levels[0].Product)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
