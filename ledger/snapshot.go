package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT - Full engine state as a serializable document
// =============================================================================

// Snapshot is the engine's complete state in the flat-file layout this
// application has always used: three top-level fields with plain JSON
// numbers and minute-resolution date strings. Fields absent on load
// leave the corresponding collection empty.
type Snapshot struct {
	SalesData []SaleSnapshot     `json:"sales_data"`
	StockData map[string]float64 `json:"stock_data"`
	Customers map[string]float64 `json:"customers"`
}

// SaleSnapshot is one sale record in persisted form.
type SaleSnapshot struct {
	ID          int     `json:"id"`
	Customer    string  `json:"customer"`
	Product     string  `json:"product"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalAmount float64 `json:"total_amount"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	PaidAmount  float64 `json:"paid_amount"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		SalesData: make([]SaleSnapshot, len(s.SalesData)),
		StockData: make(map[string]float64, len(s.StockData)),
		Customers: make(map[string]float64, len(s.Customers)),
	}
	copy(out.SalesData, s.SalesData)
	for k, v := range s.StockData {
		out.StockData[k] = v
	}
	for k, v := range s.Customers {
		out.Customers[k] = v
	}
	return out
}

// SnapshotStore persists the engine's full state. Every Save overwrites
// the previous snapshot; there is no incremental log.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// =============================================================================
// ENGINE <-> SNAPSHOT
// =============================================================================

// Snapshot captures the engine's current state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		SalesData: make([]SaleSnapshot, 0, len(e.sales)),
		StockData: make(map[string]float64, len(e.stock)),
		Customers: make(map[string]float64, len(e.customers)),
	}
	for _, sale := range e.sales {
		snap.SalesData = append(snap.SalesData, SaleSnapshot{
			ID:          sale.ID,
			Customer:    sale.Customer,
			Product:     sale.Product,
			Quantity:    sale.Quantity.InexactFloat64(),
			UnitPrice:   sale.UnitPrice.InexactFloat64(),
			TotalAmount: sale.TotalAmount.InexactFloat64(),
			Date:        sale.Date.String(),
			Status:      string(sale.Status),
			PaidAmount:  sale.PaidAmount.InexactFloat64(),
		})
	}
	for product, quantity := range e.stock {
		snap.StockData[product] = quantity.InexactFloat64()
	}
	for customer, balance := range e.customers {
		snap.Customers[customer] = balance.InexactFloat64()
	}
	return snap
}

// Restore replaces the engine's state with the snapshot's. Unparseable
// dates load as zero timestamps and unknown statuses as credit; the
// record itself is kept.
func (e *Engine) Restore(snap Snapshot) {
	e.sales = make([]SaleRecord, 0, len(snap.SalesData))
	for _, s := range snap.SalesData {
		rec := SaleRecord{
			ID:          s.ID,
			Customer:    s.Customer,
			Product:     s.Product,
			Quantity:    decimal.NewFromFloat(s.Quantity),
			UnitPrice:   decimal.NewFromFloat(s.UnitPrice),
			TotalAmount: decimal.NewFromFloat(s.TotalAmount),
			Status:      StatusCredit,
			PaidAmount:  decimal.NewFromFloat(s.PaidAmount),
		}
		if ts, err := ParseTimestamp(s.Date); err == nil {
			rec.Date = ts
		}
		if s.Status == string(StatusPaid) {
			rec.Status = StatusPaid
		}
		e.sales = append(e.sales, rec)
	}

	e.stock = make(map[string]decimal.Decimal, len(snap.StockData))
	for product, quantity := range snap.StockData {
		e.stock[product] = decimal.NewFromFloat(quantity)
	}

	e.customers = make(map[string]decimal.Decimal, len(snap.Customers))
	for customer, balance := range snap.Customers {
		e.customers[customer] = decimal.NewFromFloat(balance)
	}
}
