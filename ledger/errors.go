/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every operation either fully succeeds (all side effects applied) or
  fully fails with one of these errors (no side effects applied). None
  of them is fatal to the process.

ERROR CATEGORIES:
  1. Validation errors - malformed or out-of-range input
  2. Domain errors - stock shortages, overpayments, unknown names
  3. Consistency errors - a snapshot that violates ledger invariants

USAGE:
  Callers match with errors.Is/errors.As:

    if errors.Is(err, ledger.ErrInsufficientStock) {
        // show "not enough stock" to the user
    }

SEE ALSO:
  - engine.go: Produces these errors
  - api: Maps them to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("invalid input")

	// ErrInsufficientStock is returned when a sale asks for more units
	// than are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrUnknownProduct is returned when a referenced product doesn't exist.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrDuplicateProduct is returned when adding a product name that
	// already exists.
	ErrDuplicateProduct = errors.New("product already exists")

	// ErrUnknownCustomer is returned when a payment references a customer
	// with no outstanding credit.
	ErrUnknownCustomer = errors.New("unknown customer")

	// ErrOverpayment is returned when a payment exceeds the customer's
	// outstanding balance.
	ErrOverpayment = errors.New("payment exceeds balance")

	// ErrNegativeStock is returned when an adjustment would drive a stock
	// level below zero.
	ErrNegativeStock = errors.New("stock cannot go negative")

	// ErrInconsistentLedger is returned when the customer balance and the
	// open sale balances disagree. This only happens with a corrupted
	// snapshot; the offending operation is aborted before any mutation.
	ErrInconsistentLedger = errors.New("ledger state inconsistent")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which input was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	Product   string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %v, requested %v",
		e.Product, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// OverpaymentError provides details about a rejected payment.
type OverpaymentError struct {
	Customer string
	Balance  decimal.Decimal
	Amount   decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %v exceeds balance %v for %s",
		e.Amount, e.Balance, e.Customer)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// NegativeStockError provides details about a rejected adjustment.
type NegativeStockError struct {
	Product string
	OnHand  decimal.Decimal
	Delta   decimal.Decimal
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("adjusting %s by %v would leave %v on hand",
		e.Product, e.Delta, e.OnHand.Add(e.Delta))
}

func (e *NegativeStockError) Unwrap() error { return ErrNegativeStock }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateProduct) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrNegativeStock)
}

// IsNotFound returns true if the error indicates a missing name.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownProduct) ||
		errors.Is(err, ErrUnknownCustomer)
}
