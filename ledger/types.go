/*
Package ledger provides the credit-ledger engine.

PURPOSE:
  This package contains the data model and rules for tracking credit
  sales, customer balances, and product stock for a small retail
  operation. It owns three collections (sales, stock, customer balances)
  and exposes operations that mutate them atomically.

KEY CONCEPTS IN THIS FILE (types.go):
  - SaleRecord: An append-only record of a credit sale
  - Timestamp: A point in time at minute resolution (the ledger's grain)
  - Request types: Typed inputs validated once at the engine boundary
  - PaymentResult/Summary: Read models returned by engine operations

DESIGN PRINCIPLES:
  1. Append-only sales: Records are never edited or deleted; only
     PaidAmount/Status change, and only through payment application
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Typed requests: One request struct per operation decouples callers'
     text parsing from business rules

SEE ALSO:
  - engine.go: The operations mutating this model
  - errors.go: Error taxonomy
  - snapshot.go: Persistence model
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIMESTAMP - Minute-resolution point in time
// =============================================================================

// timestampLayout is the wire and display format for sale dates.
const timestampLayout = "2006-01-02 15:04"

// Timestamp is a point in time truncated to the minute, in local time.
type Timestamp struct {
	t time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())}
}

// ParseTimestamp parses the "YYYY-MM-DD HH:MM" local-time form.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{t: t}, nil
}

func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }
func (ts Timestamp) After(other Timestamp) bool  { return ts.t.After(other.t) }
func (ts Timestamp) Equal(other Timestamp) bool  { return ts.t.Equal(other.t) }
func (ts Timestamp) IsZero() bool                { return ts.t.IsZero() }
func (ts Timestamp) Time() time.Time             { return ts.t }

func (ts Timestamp) String() string { return ts.t.Format(timestampLayout) }

// =============================================================================
// SALE RECORD
// =============================================================================

type SaleStatus string

const (
	StatusCredit SaleStatus = "credit" // Open: unpaid or partially paid
	StatusPaid   SaleStatus = "paid"   // Terminal: fully paid, never reverts
)

// SaleRecord is a single credit sale. IDs are sequence numbers assigned
// at creation (count of existing records + 1) and never reused; deletion
// is not supported.
type SaleRecord struct {
	ID          int
	Customer    string
	Product     string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal // Quantity * UnitPrice, fixed at creation
	Date        Timestamp
	Status      SaleStatus
	PaidAmount  decimal.Decimal // monotonically increasing, never exceeds TotalAmount
}

// Unpaid returns the open balance on this sale.
func (s SaleRecord) Unpaid() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// =============================================================================
// OPERATION REQUESTS - One typed request per engine operation
// =============================================================================

// CreditSaleRequest records a sale on credit.
type CreditSaleRequest struct {
	Customer  string
	Product   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// PaymentRequest applies a payment against a customer's open sales.
type PaymentRequest struct {
	Customer string
	Amount   decimal.Decimal
}

// AddProductRequest creates a new product with its starting stock level.
type AddProductRequest struct {
	Name         string
	InitialStock decimal.Decimal
}

// StockAdjustmentRequest corrects a stock level outside of a sale
// (restock, shrinkage). Delta may be negative.
type StockAdjustmentRequest struct {
	Product string
	Delta   decimal.Decimal
}

// =============================================================================
// READ MODELS
// =============================================================================

// PaymentLine describes how much of a payment landed on one sale.
type PaymentLine struct {
	SaleID  int
	Applied decimal.Decimal
	Status  SaleStatus // status of the sale after application
}

// PaymentResult is returned by RecordPayment.
type PaymentResult struct {
	Customer         string
	Applied          decimal.Decimal
	RemainingBalance decimal.Decimal // zero when Settled
	Settled          bool            // true when the customer entry was removed
	Lines            []PaymentLine
}

// Summary aggregates the whole ledger for reporting.
type Summary struct {
	TotalOutstanding decimal.Decimal
	TotalSales       decimal.Decimal
	TotalPaid        decimal.Decimal
	CustomerCount    int
	ProductCount     int
}

// StockLevel is a product and its quantity on hand.
type StockLevel struct {
	Product  string
	Quantity decimal.Decimal
}

// CustomerBalance is a customer and their outstanding credit.
type CustomerBalance struct {
	Customer string
	Balance  decimal.Decimal
}
