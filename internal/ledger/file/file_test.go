package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"housetab/internal/core"
)

func draft(item string, cents int64, payer core.Payer) core.Draft {
	return core.Draft{
		Date:   core.NewDate(2024, 1, 1),
		Item:   item,
		Amount: core.Money{Cents: cents},
		Payer:  payer,
		Kind:   core.KindDebt,
	}
}

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	txs, err := s.List(context.Background())
	if err != nil || len(txs) != 0 {
		t.Fatalf("expected empty store, got %d records, err %v", len(txs), err)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Add(ctx, draft("餐費", 30000, core.PayerSelf))
	s.Add(ctx, draft("家用費", 10000, core.PayerOther))
	if _, err := s.SettleAll(ctx, "2024-01-01 10:00"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	want, _ := s.List(ctx)

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		// CreatedAt goes through JSON, compare by instant.
		if !w.CreatedAt.Equal(g.CreatedAt) {
			t.Fatalf("record %d createdAt drifted: %v vs %v", i, w.CreatedAt, g.CreatedAt)
		}
		w.CreatedAt = g.CreatedAt
		if w != g {
			t.Fatalf("record %d mismatch:\n got %+v\nwant %+v", i, g, w)
		}
	}
}

// Snapshots written before the settlement feature carry no isSettled field.
// They must load as unsettled, with settledAt preserved where present.
func TestLoadDefaultsLegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	legacy := `[
		{"id":"old-1","date":"2023-06-01","item":"餐費","amountCents":5000,"payer":"SELF","kind":"DEBT","createdAt":"2023-06-01T12:00:00Z"},
		{"id":"old-2","date":"2023-06-02","item":"家用費","amountCents":7000,"payer":"OTHER","kind":"REPAYMENT","createdAt":"2023-06-02T12:00:00Z","isSettled":true,"settledAt":"2023-07-01 09:30"}
	]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	txs, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d", len(txs))
	}

	byID := map[string]core.Transaction{}
	for _, tx := range txs {
		byID[tx.ID] = tx
	}
	if byID["old-1"].IsSettled {
		t.Fatalf("record without isSettled must default to unsettled")
	}
	if byID["old-1"].SettledAt != "" {
		t.Fatalf("unsettled record must have no settledAt")
	}
	if !byID["old-2"].IsSettled || byID["old-2"].SettledAt != "2023-07-01 09:30" {
		t.Fatalf("settled legacy record lost state: %+v", byID["old-2"])
	}
}

func TestRemoveManyPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	s, _ := Open(path)
	a, _ := s.Add(ctx, draft("a", 100, core.PayerSelf))
	s.Add(ctx, draft("b", 200, core.PayerOther))
	s.SettleAll(ctx, "2024-01-01 10:00")

	if n, err := s.RemoveMany(ctx, []string{a.ID}); err != nil || n != 1 {
		t.Fatalf("removeMany: n=%d err=%v", n, err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	txs, _ := reopened.List(ctx)
	if len(txs) != 1 || txs[0].Item != "b" {
		t.Fatalf("unexpected survivors: %+v", txs)
	}
	if !txs[0].IsSettled || txs[0].SettledAt != "2024-01-01 10:00" {
		t.Fatalf("survivor lost settlement state: %+v", txs[0])
	}
}
