/*
Package sqlite provides a SQLite-backed snapshot store.

PURPOSE:
  Persists the ledger snapshot as three tables (sales, stock, customers)
  instead of one JSON file. The persistence contract is unchanged: every
  save rewrites the full state, inside a single database transaction.

KEY TABLES:
  sales:     One row per sale record, id is the ledger sequence number
  stock:     product -> quantity on hand
  customers: customer -> outstanding balance

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better crash
  recovery than the flat file offers.

CONCURRENCY:
  Uses a mutex so a save and a load never interleave. The engine itself
  is single-caller; this only guards the store.

USAGE:
  store, err := sqlite.New("./sales_stock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For anything beyond this tool's
  scale, use a versioned migration tool instead.

SEE ALSO:
  - ledger/snapshot.go: Snapshot layout and SnapshotStore interface
  - store/file: Flat-file primary persistence
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dsolhenry/sales-stock-tracker/ledger"
)

// Store implements ledger.SnapshotStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sales (
		id           INTEGER PRIMARY KEY,
		customer     TEXT NOT NULL,
		product      TEXT NOT NULL,
		quantity     REAL NOT NULL,
		unit_price   REAL NOT NULL,
		total_amount REAL NOT NULL,
		date         TEXT NOT NULL,
		status       TEXT NOT NULL,
		paid_amount  REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock (
		product  TEXT PRIMARY KEY,
		quantity REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS customers (
		customer TEXT PRIMARY KEY,
		balance  REAL NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save rewrites all three tables with the snapshot's contents, in one
// transaction: either the new state lands completely or the old state
// remains.
func (s *Store) Save(ctx context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sales", "stock", "customers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, sale := range snap.SalesData {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales (id, customer, product, quantity, unit_price, total_amount, date, status, paid_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sale.ID, sale.Customer, sale.Product, sale.Quantity, sale.UnitPrice,
			sale.TotalAmount, sale.Date, sale.Status, sale.PaidAmount)
		if err != nil {
			return fmt.Errorf("insert sale %d: %w", sale.ID, err)
		}
	}
	for product, quantity := range snap.StockData {
		if _, err := tx.ExecContext(ctx, `INSERT INTO stock (product, quantity) VALUES (?, ?)`, product, quantity); err != nil {
			return fmt.Errorf("insert stock %q: %w", product, err)
		}
	}
	for customer, balance := range snap.Customers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO customers (customer, balance) VALUES (?, ?)`, customer, balance); err != nil {
			return fmt.Errorf("insert customer %q: %w", customer, err)
		}
	}

	return tx.Commit()
}

// Load reads the full snapshot. Empty tables yield an empty snapshot.
func (s *Store) Load(ctx context.Context) (ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := ledger.Snapshot{
		StockData: make(map[string]float64),
		Customers: make(map[string]float64),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer, product, quantity, unit_price, total_amount, date, status, paid_amount
		FROM sales ORDER BY id`)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load sales: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sale ledger.SaleSnapshot
		if err := rows.Scan(&sale.ID, &sale.Customer, &sale.Product, &sale.Quantity,
			&sale.UnitPrice, &sale.TotalAmount, &sale.Date, &sale.Status, &sale.PaidAmount); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("scan sale: %w", err)
		}
		snap.SalesData = append(snap.SalesData, sale)
	}
	if err := rows.Err(); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load sales: %w", err)
	}

	stockRows, err := s.db.QueryContext(ctx, `SELECT product, quantity FROM stock`)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load stock: %w", err)
	}
	defer stockRows.Close()
	for stockRows.Next() {
		var product string
		var quantity float64
		if err := stockRows.Scan(&product, &quantity); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("scan stock: %w", err)
		}
		snap.StockData[product] = quantity
	}
	if err := stockRows.Err(); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load stock: %w", err)
	}

	customerRows, err := s.db.QueryContext(ctx, `SELECT customer, balance FROM customers`)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load customers: %w", err)
	}
	defer customerRows.Close()
	for customerRows.Next() {
		var customer string
		var balance float64
		if err := customerRows.Scan(&customer, &balance); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("scan customer: %w", err)
		}
		snap.Customers[customer] = balance
	}
	if err := customerRows.Err(); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load customers: %w", err)
	}

	return snap, nil
}
