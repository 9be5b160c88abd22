/*
Package file persists ledger snapshots as a single JSON document.

PURPOSE:
  This is the application's primary persistence: the whole snapshot is
  rewritten on every save, matching the flat-file format the tracker has
  always used (sales_data / stock_data / customers).

WRITE DISCIPLINE:
  Saves go through a temp file in the same directory followed by a
  rename, so a crash mid-write leaves the previous snapshot readable.

FIRST RUN:
  A missing data file is not an error; Load returns an empty snapshot.
  A malformed file returns an error and the engine falls back to an
  empty ledger.

SEE ALSO:
  - ledger/snapshot.go: Snapshot layout and SnapshotStore interface
  - store/sqlite: Relational alternative
*/
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsolhenry/sales-stock-tracker/ledger"
)

// Store writes snapshots to a single JSON file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Save overwrites the data file with the full snapshot.
func (s *Store) Save(_ context.Context, snap ledger.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the data file. A missing file yields an empty snapshot and
// no error; a file that exists but cannot be parsed is an error.
func (s *Store) Load(_ context.Context) (ledger.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ledger.Snapshot{}, nil
	}
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
