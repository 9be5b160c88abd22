/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credit sales & stock tracker server.
  Handles configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config, apply flag overrides
  2. Construct the snapshot store (file, sqlite, or memory)
  3. Load the last snapshot into the ledger engine
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr   Listen address (overrides APP_ADDR)
  -store  Persistence backend: file | sqlite | memory (overrides STORE)
  -data   Snapshot file path for the file store (overrides DATA_FILE)
  -db     SQLite database path (overrides DB_PATH)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete
  3. Close the store
  4. Exit

EXAMPLES:
  # Flat-file persistence (default, same file the old tracker wrote)
  ./server -data=./sales_stock_data.json

  # SQLite persistence
  ./server -store=sqlite -db=./sales_stock.db

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment configuration
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dsolhenry/sales-stock-tracker/api"
	"github.com/dsolhenry/sales-stock-tracker/config"
	"github.com/dsolhenry/sales-stock-tracker/ledger"
	filestore "github.com/dsolhenry/sales-stock-tracker/store/file"
	"github.com/dsolhenry/sales-stock-tracker/store/memory"
	"github.com/dsolhenry/sales-stock-tracker/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.AppAddr, "listen address")
	storeKind := flag.String("store", cfg.Store, "persistence backend: file, sqlite, or memory")
	dataFile := flag.String("data", cfg.DataFile, "snapshot file path (file store)")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path (sqlite store)")
	flag.Parse()

	logger := config.NewLogger(cfg)

	var store ledger.SnapshotStore
	switch *storeKind {
	case "file":
		store = filestore.New(*dataFile)
	case "sqlite":
		s, err := sqlite.New(*dbPath)
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer s.Close()
		store = s
	case "memory":
		store = memory.New()
	default:
		logger.Error("unknown store", slog.String("store", *storeKind))
		os.Exit(1)
	}

	engine := ledger.Load(context.Background(), store,
		ledger.WithPersistence(store),
		ledger.WithLogger(logger),
	)

	handler := api.NewHandler(engine, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", *addr), slog.String("store", *storeKind))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
