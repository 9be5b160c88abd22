/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Request types carry validator/v10 struct tags and are checked before
  any engine call. The engine re-validates independently; the tags exist
  to reject garbage at the boundary with a field-level message.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: The domain model these project
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/dsolhenry/sales-stock-tracker/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateSaleRequest records a credit sale.
type CreateSaleRequest struct {
	Customer  string  `json:"customer" validate:"required"`
	Product   string  `json:"product" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
}

// CreatePaymentRequest applies a payment to a customer's open sales.
type CreatePaymentRequest struct {
	Customer string  `json:"customer" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
}

// CreateProductRequest adds a product to stock.
type CreateProductRequest struct {
	Name         string  `json:"name" validate:"required"`
	InitialStock float64 `json:"initial_stock" validate:"gte=0"`
}

// AdjustStockRequest corrects a product's stock level.
type AdjustStockRequest struct {
	Delta float64 `json:"delta" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SaleDTO represents one sale record in API responses.
type SaleDTO struct {
	ID          int     `json:"id"`
	Customer    string  `json:"customer"`
	Product     string  `json:"product"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalAmount float64 `json:"total_amount"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	PaidAmount  float64 `json:"paid_amount"`
	Remaining   float64 `json:"remaining"`
}

// SaleResponse wraps a created sale with the refreshed outstanding total
// so clients can re-render the balance header without a second call.
type SaleResponse struct {
	Sale             SaleDTO `json:"sale"`
	TotalOutstanding float64 `json:"total_outstanding"`
}

// PaymentLineDTO shows how much of a payment landed on one sale.
type PaymentLineDTO struct {
	SaleID  int     `json:"sale_id"`
	Applied float64 `json:"applied"`
	Status  string  `json:"status"`
}

// PaymentResponse describes a recorded payment.
type PaymentResponse struct {
	Customer         string           `json:"customer"`
	Applied          float64          `json:"applied"`
	RemainingBalance float64          `json:"remaining_balance"`
	Settled          bool             `json:"settled"`
	Lines            []PaymentLineDTO `json:"lines"`
	TotalOutstanding float64          `json:"total_outstanding"`
}

// StockLevelDTO is one product and its quantity on hand.
type StockLevelDTO struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
}

// CustomerBalanceDTO is one customer and their outstanding credit.
type CustomerBalanceDTO struct {
	Customer string  `json:"customer"`
	Balance  float64 `json:"balance"`
}

// SummaryDTO is the reports-tab aggregation.
type SummaryDTO struct {
	TotalOutstanding float64 `json:"total_outstanding"`
	TotalSales       float64 `json:"total_sales"`
	TotalPaid        float64 `json:"total_paid"`
	CustomerCount    int     `json:"customer_count"`
	ProductCount     int     `json:"product_count"`
}

// OutstandingDTO is the total outstanding credit across all customers.
type OutstandingDTO struct {
	TotalOutstanding float64 `json:"total_outstanding"`
}

// ErrorResponse is the JSON body for all error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toSaleDTO(s ledger.SaleRecord) SaleDTO {
	return SaleDTO{
		ID:          s.ID,
		Customer:    s.Customer,
		Product:     s.Product,
		Quantity:    s.Quantity.InexactFloat64(),
		UnitPrice:   s.UnitPrice.InexactFloat64(),
		TotalAmount: s.TotalAmount.InexactFloat64(),
		Date:        s.Date.String(),
		Status:      string(s.Status),
		PaidAmount:  s.PaidAmount.InexactFloat64(),
		Remaining:   s.Unpaid().InexactFloat64(),
	}
}

func toSaleDTOs(sales []ledger.SaleRecord) []SaleDTO {
	out := make([]SaleDTO, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleDTO(s))
	}
	return out
}

func toPaymentResponse(r ledger.PaymentResult, outstanding decimal.Decimal) PaymentResponse {
	resp := PaymentResponse{
		Customer:         r.Customer,
		Applied:          r.Applied.InexactFloat64(),
		RemainingBalance: r.RemainingBalance.InexactFloat64(),
		Settled:          r.Settled,
		Lines:            make([]PaymentLineDTO, 0, len(r.Lines)),
		TotalOutstanding: outstanding.InexactFloat64(),
	}
	for _, line := range r.Lines {
		resp.Lines = append(resp.Lines, PaymentLineDTO{
			SaleID:  line.SaleID,
			Applied: line.Applied.InexactFloat64(),
			Status:  string(line.Status),
		})
	}
	return resp
}

func toStockLevelDTOs(levels []ledger.StockLevel) []StockLevelDTO {
	out := make([]StockLevelDTO, 0, len(levels))
	for _, l := range levels {
		out = append(out, StockLevelDTO{Product: l.Product, Quantity: l.Quantity.InexactFloat64()})
	}
	return out
}

func toCustomerBalanceDTOs(balances []ledger.CustomerBalance) []CustomerBalanceDTO {
	out := make([]CustomerBalanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, CustomerBalanceDTO{Customer: b.Customer, Balance: b.Balance.InexactFloat64()})
	}
	return out
}

func toSummaryDTO(s ledger.Summary) SummaryDTO {
	return SummaryDTO{
		TotalOutstanding: s.TotalOutstanding.InexactFloat64(),
		TotalSales:       s.TotalSales.InexactFloat64(),
		TotalPaid:        s.TotalPaid.InexactFloat64(),
		CustomerCount:    s.CustomerCount,
		ProductCount:     s.ProductCount,
	}
}
