// Package memory is an in-memory backup target used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"housetab/internal/core"
	"housetab/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows map[string]core.Transaction
}

var (
	_ sheets.BackupWriter  = (*Store)(nil)
	_ sheets.BackupDeleter = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: make(map[string]core.Transaction)}
}

func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[tx.ID] = tx
	return fmt.Sprintf("mem:%s", tx.ID), nil
}

func (s *Store) Delete(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, txID)
	return nil
}

// Get returns the mirrored record, for assertions in tests.
func (s *Store) Get(txID string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.rows[txID]
	return tx, ok
}

// Len reports how many records are mirrored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
