// Package file implements the ledger store as a single JSON snapshot on
// disk: load() reads the full record list, every mutation rewrites it whole.
// There is no partial or append persistence.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"housetab/internal/core"
	"housetab/internal/ledger"
)

// record is the on-disk shape. IsSettled is a pointer so that snapshots
// written before the settlement feature existed load as unsettled instead
// of failing.
type record struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Item        string    `json:"item"`
	AmountCents int64     `json:"amountCents"`
	Payer       string    `json:"payer"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"createdAt"`
	IsSettled   *bool     `json:"isSettled,omitempty"`
	SettledAt   string    `json:"settledAt,omitempty"`
}

type Store struct {
	mu   sync.Mutex
	path string
	txs  []core.Transaction
	now  func() time.Time
}

var _ ledger.Store = (*Store)(nil)

// Open loads the snapshot at path, creating an empty store if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	txs, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	s.txs = txs
	return s, nil
}

func decodeSnapshot(data []byte) ([]core.Transaction, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}

	txs := make([]core.Transaction, 0, len(recs))
	for _, r := range recs {
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		settled := r.IsSettled != nil && *r.IsSettled
		txs = append(txs, core.Transaction{
			ID:        r.ID,
			Date:      date,
			Item:      r.Item,
			Amount:    core.Money{Cents: r.AmountCents},
			Payer:     core.Payer(r.Payer),
			Kind:      core.Kind(r.Kind),
			CreatedAt: r.CreatedAt,
			IsSettled: settled,
			SettledAt: r.SettledAt,
		})
	}
	return txs, nil
}

func encodeSnapshot(txs []core.Transaction) ([]byte, error) {
	recs := make([]record, 0, len(txs))
	for _, tx := range txs {
		settled := tx.IsSettled
		recs = append(recs, record{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			Item:        tx.Item,
			AmountCents: tx.Amount.Cents,
			Payer:       string(tx.Payer),
			Kind:        string(tx.Kind),
			CreatedAt:   tx.CreatedAt,
			IsSettled:   &settled,
			SettledAt:   tx.SettledAt,
		})
	}
	return json.MarshalIndent(recs, "", "  ")
}

// save rewrites the snapshot under s.mu. A failed write is logged, not
// propagated: the in-memory set stays authoritative for the session and the
// next successful mutation persists it whole.
func (s *Store) save(ctx context.Context) {
	data, err := encodeSnapshot(s.txs)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode ledger snapshot", "error", err, "path", s.path)
		return
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.ErrorContext(ctx, "Failed to create snapshot directory", "error", err, "dir", dir)
			return
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		slog.ErrorContext(ctx, "Failed to write ledger snapshot", "error", err, "path", tmp)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		slog.ErrorContext(ctx, "Failed to replace ledger snapshot", "error", err, "path", s.path)
	}
}

func (s *Store) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := ledger.NewTransaction(d, s.now())
	s.txs = append(s.txs, tx)
	s.save(ctx)
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

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			s.save(ctx)
			return nil
		}
	}
	return nil
}

func (s *Store) RemoveMany(ctx context.Context, ids []string) (int, error) {
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
	if removed > 0 {
		s.save(ctx)
	}
	return removed, nil
}

func (s *Store) SettleAll(ctx context.Context, stamp string) (int, error) {
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
	if settled > 0 {
		s.save(ctx)
	}
	return settled, nil
}

func (s *Store) Close() error { return nil }
