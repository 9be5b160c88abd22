package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsolhenry/sales-stock-tracker/ledger"
	"github.com/dsolhenry/sales-stock-tracker/store/sqlite"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		SalesData: []ledger.SaleSnapshot{
			{
				ID: 1, Customer: "Alice", Product: "Rice",
				Quantity: 2, UnitPrice: 500, TotalAmount: 1000,
				Date: "2025-03-10 09:30", Status: "paid", PaidAmount: 1000,
			},
			{
				ID: 2, Customer: "Bob", Product: "Rice",
				Quantity: 1, UnitPrice: 300, TotalAmount: 300,
				Date: "2025-03-10 09:31", Status: "credit", PaidAmount: 100,
			},
		},
		StockData: map[string]float64{"Rice": 97, "Beans": 40},
		Customers: map[string]float64{"Bob": 200},
	}
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), loaded)
}

func TestSQLiteStore_EmptyDatabaseLoadsEmptySnapshot(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snap.SalesData)
	assert.Empty(t, snap.StockData)
	assert.Empty(t, snap.Customers)
}

func TestSQLiteStore_SaveRewritesFullState(t *testing.T) {
	// Each save replaces everything: rows absent from the new snapshot
	// must disappear.

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))

	second := ledger.Snapshot{
		SalesData: testSnapshot().SalesData[:1],
		StockData: map[string]float64{"Rice": 50},
		Customers: map[string]float64{},
	}
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.SalesData, 1)
	assert.Equal(t, "Alice", loaded.SalesData[0].Customer)
	assert.Equal(t, map[string]float64{"Rice": 50}, loaded.StockData)
	assert.Empty(t, loaded.Customers)
}

func TestSQLiteStore_RoundTripThroughEngine(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := ledger.New(ledger.WithPersistence(store))
	require.NoError(t, e.AddProduct(ctx, ledger.AddProductRequest{Name: "Rice", InitialStock: dec(100)}))
	_, err := e.RecordCreditSale(ctx, ledger.CreditSaleRequest{
		Customer: "Alice", Product: "Rice", Quantity: dec(3), UnitPrice: dec(500),
	})
	require.NoError(t, err)

	reloaded := ledger.Load(ctx, store)

	assert.Equal(t, e.Snapshot(), reloaded.Snapshot())
}
