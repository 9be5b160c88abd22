/*
handlers.go - HTTP handlers driving the ledger engine

PURPOSE:
  Exposes the credit-ledger engine over REST. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Sales:
    GET    /api/sales                       Sale history (?limit=n, newest first)
    POST   /api/sales                       Record a credit sale

  Payments:
    POST   /api/payments                    Apply a payment to a customer

  Products:
    GET    /api/products                    Stock levels (?low=threshold)
    POST   /api/products                    Add a product
    POST   /api/products/{name}/adjustments Adjust a stock level

  Customers:
    GET    /api/customers                   Outstanding balances, largest first

  Reports:
    GET    /api/reports/summary             Aggregated report
    GET    /api/reports/outstanding         Total outstanding credit
    GET    /api/export                      Full snapshot download

SERIALIZED ENGINE CALLS:
  The engine expects one caller at a time. The Handler owns a single
  mutex and takes it around every engine call, which is the external
  serialization the engine's contract requires.

ERROR HANDLING:
  Engine errors map to JSON error bodies with:
  - 400: Validation errors, malformed JSON
  - 404: Unknown product or customer
  - 409: Insufficient stock, duplicate product, overpayment, negative stock
  - 500: Ledger inconsistency, internal errors

RE-RENDER CONTRACT:
  Mutating responses embed the state a client must redraw (the refreshed
  outstanding total, the affected sale records) so views stay derived
  from engine state, never from transient form state.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dsolhenry/sales-stock-tracker/ledger"
)

// defaultLowStock mirrors the stock view's "running low" highlight.
var defaultLowStock = decimal.NewFromInt(10)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	engine   *ledger.Engine
	validate *validator.Validate
	logger   *slog.Logger

	// Serializes all engine calls; the engine itself holds no locks.
	mu sync.Mutex
}

// NewHandler creates a handler around the given engine.
func NewHandler(engine *ledger.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:   engine,
		validate: validator.New(),
		logger:   logger,
	}
}

// =============================================================================
// SALES
// =============================================================================

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	sale, err := h.engine.RecordCreditSale(r.Context(), ledger.CreditSaleRequest{
		Customer:  req.Customer,
		Product:   req.Product,
		Quantity:  decimal.NewFromFloat(req.Quantity),
		UnitPrice: decimal.NewFromFloat(req.UnitPrice),
	})
	outstanding := h.engine.TotalOutstanding()
	h.mu.Unlock()

	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, SaleResponse{
		Sale:             toSaleDTO(sale),
		TotalOutstanding: outstanding.InexactFloat64(),
	})
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	h.mu.Lock()
	sales := h.engine.RecentSales(limit)
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, toSaleDTOs(sales))
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	result, err := h.engine.RecordPayment(r.Context(), ledger.PaymentRequest{
		Customer: req.Customer,
		Amount:   decimal.NewFromFloat(req.Amount),
	})
	outstanding := h.engine.TotalOutstanding()
	h.mu.Unlock()

	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPaymentResponse(result, outstanding))
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	low := r.URL.Query().Has("low")
	threshold := defaultLowStock
	if raw := r.URL.Query().Get("low"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "low must be a number"})
			return
		}
		threshold = decimal.NewFromFloat(f)
	}

	h.mu.Lock()
	var levels []ledger.StockLevel
	if low {
		levels = h.engine.LowStock(threshold)
	} else {
		levels = h.engine.StockLevels()
	}
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, toStockLevelDTOs(levels))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	err := h.engine.AddProduct(r.Context(), ledger.AddProductRequest{
		Name:         req.Name,
		InitialStock: decimal.NewFromFloat(req.InitialStock),
	})
	levels := h.engine.StockLevels()
	h.mu.Unlock()

	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toStockLevelDTOs(levels))
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "name")
	var req AdjustStockRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	err := h.engine.AdjustStock(r.Context(), ledger.StockAdjustmentRequest{
		Product: product,
		Delta:   decimal.NewFromFloat(req.Delta),
	})
	levels := h.engine.StockLevels()
	h.mu.Unlock()

	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStockLevelDTOs(levels))
}

// =============================================================================
// CUSTOMERS & REPORTS
// =============================================================================

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	balances := h.engine.OutstandingCustomers()
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, toCustomerBalanceDTOs(balances))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	summary := h.engine.SummaryReport()
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func (h *Handler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	outstanding := h.engine.TotalOutstanding()
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, OutstandingDTO{TotalOutstanding: outstanding.InexactFloat64()})
}

func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	snap := h.engine.Snapshot()
	h.mu.Unlock()

	w.Header().Set("Content-Disposition", `attachment; filename="sales_stock_data.json"`)
	h.writeJSON(w, http.StatusOK, snap)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. On failure it writes
// a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "invalid field: " + fieldErrs[0].Field(),
			})
			return false
		}
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case ledger.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case ledger.IsClientError(err):
		h.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("engine operation failed", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
