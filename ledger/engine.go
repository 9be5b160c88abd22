/*
engine.go - The credit-ledger engine

PURPOSE:
  A single long-lived Engine owns the three collections (sales, stock,
  customer balances) and is the only writer. Each operation validates its
  input completely, then commits all side effects, so no partially
  applied operation is ever observable.

ATOMICITY:
  Operations follow validate-then-commit: every failure path returns
  before the first mutation. RecordPayment additionally stages its
  proration plan before touching any sale record.

PERSISTENCE:
  After every successful mutating operation the engine snapshots its
  full state and hands it to the configured SnapshotStore. Save failures
  are logged and swallowed: durable storage may lag in-memory state until
  the next successful save.

CONCURRENCY:
  The engine holds no locks. It expects a single logical caller; anything
  driving it from multiple goroutines must serialize calls externally
  (the HTTP layer does this with one mutex around the engine).

SEE ALSO:
  - types.go: Data model and request types
  - snapshot.go: Snapshot/Restore and the SnapshotStore interface
*/
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// balanceWriteOff is the threshold below which a customer balance is
// considered settled and the entry removed. Snapshots written by older
// float-based versions of this application can carry sub-cent residue.
var balanceWriteOff = decimal.NewFromFloat(0.01)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	sales     []SaleRecord
	stock     map[string]decimal.Decimal
	customers map[string]decimal.Decimal

	store  SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Engine)

// WithPersistence makes the engine save a full snapshot after every
// successful mutating operation.
func WithPersistence(store SnapshotStore) Option {
	return func(e *Engine) { e.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the sale-date clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		stock:     make(map[string]decimal.Decimal),
		customers: make(map[string]decimal.Decimal),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load creates an engine from the store's snapshot. A missing or
// unreadable snapshot is not an error: the engine starts from an empty
// ledger and the condition is only logged.
func Load(ctx context.Context, store SnapshotStore, opts ...Option) *Engine {
	e := New(opts...)
	if store == nil {
		return e
	}
	snap, err := store.Load(ctx)
	if err != nil {
		e.logger.Warn("could not load snapshot, starting with an empty ledger", slog.Any("error", err))
		return e
	}
	e.Restore(snap)
	return e
}

// =============================================================================
// MUTATING OPERATIONS
// =============================================================================

// RecordCreditSale appends a sale, decrements stock, and increases the
// customer's balance, all or nothing.
func (e *Engine) RecordCreditSale(ctx context.Context, req CreditSaleRequest) (SaleRecord, error) {
	customer := strings.TrimSpace(req.Customer)
	if customer == "" {
		return SaleRecord{}, &ValidationError{Field: "customer", Message: "name must not be empty"}
	}
	if !req.Quantity.IsPositive() {
		return SaleRecord{}, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	if !req.UnitPrice.IsPositive() {
		return SaleRecord{}, &ValidationError{Field: "unit_price", Message: "must be greater than zero"}
	}
	onHand, ok := e.stock[req.Product]
	if !ok {
		return SaleRecord{}, &ValidationError{Field: "product", Message: fmt.Sprintf("no such product %q", req.Product)}
	}
	if onHand.LessThan(req.Quantity) {
		return SaleRecord{}, &InsufficientStockError{Product: req.Product, Available: onHand, Requested: req.Quantity}
	}

	sale := SaleRecord{
		ID:          len(e.sales) + 1,
		Customer:    customer,
		Product:     req.Product,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalAmount: req.Quantity.Mul(req.UnitPrice),
		Date:        NewTimestamp(e.now()),
		Status:      StatusCredit,
		PaidAmount:  decimal.Zero,
	}

	e.sales = append(e.sales, sale)
	e.stock[req.Product] = onHand.Sub(req.Quantity)
	e.customers[customer] = e.customers[customer].Add(sale.TotalAmount)

	e.persist(ctx)
	return sale, nil
}

// RecordPayment applies a payment across the customer's open credit
// sales in the order they were created, flipping each fully covered sale
// to paid. The customer entry is removed once its balance falls to the
// write-off threshold.
//
// The proration plan is staged first: if the payment cannot be fully
// absorbed by open sales, the customer balance disagrees with the sale
// records and the operation aborts with ErrInconsistentLedger before any
// mutation.
func (e *Engine) RecordPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return PaymentResult{}, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	balance, ok := e.customers[req.Customer]
	if !ok {
		return PaymentResult{}, fmt.Errorf("%w: %q has no outstanding credit", ErrUnknownCustomer, req.Customer)
	}
	if req.Amount.GreaterThan(balance) {
		return PaymentResult{}, &OverpaymentError{Customer: req.Customer, Balance: balance, Amount: req.Amount}
	}

	// Stage: decide how much lands on each sale before mutating anything.
	type application struct {
		idx     int
		applied decimal.Decimal
	}
	remaining := req.Amount
	var plan []application
	for i := range e.sales {
		if remaining.IsZero() {
			break
		}
		sale := &e.sales[i]
		if sale.Customer != req.Customer || sale.Status != StatusCredit {
			continue
		}
		unpaid := sale.Unpaid()
		if !unpaid.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, unpaid)
		plan = append(plan, application{idx: i, applied: applied})
		remaining = remaining.Sub(applied)
	}
	if remaining.IsPositive() {
		return PaymentResult{}, fmt.Errorf("%w: %v of payment for %q has no open sale to land on",
			ErrInconsistentLedger, remaining, req.Customer)
	}

	// Commit.
	result := PaymentResult{Customer: req.Customer, Applied: req.Amount}
	for _, app := range plan {
		sale := &e.sales[app.idx]
		sale.PaidAmount = sale.PaidAmount.Add(app.applied)
		if sale.PaidAmount.GreaterThanOrEqual(sale.TotalAmount) {
			sale.Status = StatusPaid
		}
		result.Lines = append(result.Lines, PaymentLine{SaleID: sale.ID, Applied: app.applied, Status: sale.Status})
	}

	newBalance := balance.Sub(req.Amount)
	if newBalance.LessThanOrEqual(balanceWriteOff) {
		delete(e.customers, req.Customer)
		result.Settled = true
		result.RemainingBalance = decimal.Zero
	} else {
		e.customers[req.Customer] = newBalance
		result.RemainingBalance = newBalance
	}

	e.persist(ctx)
	return result, nil
}

// AddProduct creates a product with its initial stock level.
func (e *Engine) AddProduct(ctx context.Context, req AddProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name must not be empty"}
	}
	if req.InitialStock.IsNegative() {
		return &ValidationError{Field: "initial_stock", Message: "must not be negative"}
	}
	if _, exists := e.stock[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProduct, name)
	}

	e.stock[name] = req.InitialStock

	e.persist(ctx)
	return nil
}

// AdjustStock applies a manual correction to a stock level. Delta may be
// negative but may not drive the level below zero.
func (e *Engine) AdjustStock(ctx context.Context, req StockAdjustmentRequest) error {
	onHand, ok := e.stock[req.Product]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, req.Product)
	}
	adjusted := onHand.Add(req.Delta)
	if adjusted.IsNegative() {
		return &NegativeStockError{Product: req.Product, OnHand: onHand, Delta: req.Delta}
	}

	e.stock[req.Product] = adjusted

	e.persist(ctx)
	return nil
}

// =============================================================================
// QUERIES - Pure, no side effects
// =============================================================================

// TotalOutstanding returns the sum of all customer balances.
func (e *Engine) TotalOutstanding() decimal.Decimal {
	total := decimal.Zero
	for _, balance := range e.customers {
		total = total.Add(balance)
	}
	return total
}

// SummaryReport aggregates the whole ledger. TotalPaid counts payments
// on all sales, including ones that have since flipped to paid.
func (e *Engine) SummaryReport() Summary {
	s := Summary{
		TotalOutstanding: e.TotalOutstanding(),
		TotalSales:       decimal.Zero,
		TotalPaid:        decimal.Zero,
		CustomerCount:    len(e.customers),
		ProductCount:     len(e.stock),
	}
	for _, sale := range e.sales {
		s.TotalSales = s.TotalSales.Add(sale.TotalAmount)
		s.TotalPaid = s.TotalPaid.Add(sale.PaidAmount)
	}
	return s
}

// Sales returns a copy of all sale records in creation (id) order.
func (e *Engine) Sales() []SaleRecord {
	out := make([]SaleRecord, len(e.sales))
	copy(out, e.sales)
	return out
}

// RecentSales returns up to limit sales, newest first. Sales sharing the
// same minute keep their creation order. limit <= 0 returns everything.
func (e *Engine) RecentSales(limit int) []SaleRecord {
	out := e.Sales()
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// StockLevels returns all products and their quantities, sorted by name.
func (e *Engine) StockLevels() []StockLevel {
	out := make([]StockLevel, 0, len(e.stock))
	for product, quantity := range e.stock {
		out = append(out, StockLevel{Product: product, Quantity: quantity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out
}

// LowStock returns the products with quantity strictly below threshold,
// sorted by name.
func (e *Engine) LowStock(threshold decimal.Decimal) []StockLevel {
	var out []StockLevel
	for _, level := range e.StockLevels() {
		if level.Quantity.LessThan(threshold) {
			out = append(out, level)
		}
	}
	return out
}

// OutstandingCustomers returns customers with open credit, largest
// balance first; ties break by name.
func (e *Engine) OutstandingCustomers() []CustomerBalance {
	out := make([]CustomerBalance, 0, len(e.customers))
	for customer, balance := range e.customers {
		out = append(out, CustomerBalance{Customer: customer, Balance: balance})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Balance.Equal(out[j].Balance) {
			return out[i].Balance.GreaterThan(out[j].Balance)
		}
		return out[i].Customer < out[j].Customer
	})
	return out
}

// =============================================================================
// PERSISTENCE HOOK
// =============================================================================

func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, e.Snapshot()); err != nil {
		// In-memory state is now ahead of durable storage until the next
		// successful save.
		e.logger.Warn("snapshot save failed", slog.Any("error", err))
	}
}
