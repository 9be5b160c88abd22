// Package memory provides an in-memory snapshot store (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/dsolhenry/sales-stock-tracker/ledger"
)

type Store struct {
	mu   sync.RWMutex
	snap ledger.Snapshot
}

func New() *Store {
	return &Store{}
}

func (m *Store) Save(_ context.Context, snap ledger.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return nil
}

func (m *Store) Load(_ context.Context) (ledger.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone(), nil
}
