// Package memory provides an in-memory ledger store used for development
// and as the reference implementation in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"housetab/internal/core"
	"housetab/internal/ledger"
)

type Store struct {
	mu  sync.Mutex
	txs []core.Transaction
	now func() time.Time
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock fixes the creation clock, for tests.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Seed replaces the whole record set. Intended for tests and snapshot loads.
func (s *Store) Seed(txs []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append([]core.Transaction(nil), txs...)
}

func (s *Store) Add(_ context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := ledger.NewTransaction(d, s.now())
	s.txs = append(s.txs, tx)
	return tx, nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Transaction(nil), s.txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	// Absent id is a no-op.
	return nil
}

func (s *Store) RemoveMany(_ context.Context, ids []string) (int, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[:0]
	removed := 0
	for _, tx := range s.txs {
		if _, hit := set[tx.ID]; hit {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept
	return removed, nil
}

func (s *Store) SettleAll(_ context.Context, stamp string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settled := 0
	for i := range s.txs {
		if s.txs[i].IsSettled {
			continue
		}
		s.txs[i].IsSettled = true
		s.txs[i].SettledAt = stamp
		settled++
	}
	return settled, nil
}

func (s *Store) Close() error { return nil }
