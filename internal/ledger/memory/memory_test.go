package memory

import (
	"context"
	"testing"
	"time"

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

func TestAddAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.Add(ctx, draft("a", 100, core.PayerSelf))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := s.Add(ctx, draft("b", 200, core.PayerOther))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Fatalf("ids must be unique and non-empty: %q %q", a.ID, b.ID)
	}
	if a.IsSettled || a.SettledAt != "" {
		t.Fatalf("new records must start unsettled: %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Fatalf("createdAt not assigned")
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	s := New()
	if _, err := s.Add(context.Background(), draft("", 100, core.PayerSelf)); err == nil {
		t.Fatalf("expected validation error")
	}
	txs, _ := s.List(context.Background())
	if len(txs) != 0 {
		t.Fatalf("rejected draft must not create a record")
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	})

	for _, item := range []string{"first", "second", "third"} {
		if _, err := s.Add(ctx, draft(item, 100, core.PayerSelf)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	txs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("len = %d", len(txs))
	}
	if txs[0].Item != "third" || txs[2].Item != "first" {
		t.Fatalf("expected newest first, got %s..%s", txs[0].Item, txs[2].Item)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _ := s.Add(ctx, draft("a", 100, core.PayerSelf))

	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("second remove must be a no-op: %v", err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatalf("absent id must be a no-op: %v", err)
	}
}

func TestSettleAllStampsUniformly(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Add(ctx, draft("a", 30000, core.PayerSelf))
	s.Add(ctx, draft("b", 10000, core.PayerOther))

	// Pre-settle one record with an older stamp; it must stay untouched.
	if n, err := s.SettleAll(ctx, "2023-12-31 23:59"); err != nil || n != 2 {
		t.Fatalf("first settle: n=%d err=%v", n, err)
	}
	s.Add(ctx, draft("c", 500, core.PayerSelf))

	n, err := s.SettleAll(ctx, "2024-01-01 10:00")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if n != 1 {
		t.Fatalf("settled %d records, want 1", n)
	}

	txs, _ := s.List(ctx)
	for _, tx := range txs {
		if !tx.IsSettled {
			t.Fatalf("record %s left unsettled", tx.Item)
		}
		switch tx.Item {
		case "a", "b":
			if tx.SettledAt != "2023-12-31 23:59" {
				t.Fatalf("previously-settled record restamped: %q", tx.SettledAt)
			}
		case "c":
			if tx.SettledAt != "2024-01-01 10:00" {
				t.Fatalf("record c stamp = %q", tx.SettledAt)
			}
		}
	}

	if b := core.Balance(txs); b.Status != core.StatusSettled || b.NetAmount.Cents != 0 {
		t.Fatalf("balance after settle-all: %+v", b)
	}
}

func TestSettleAllOnEmptySetIsNoop(t *testing.T) {
	s := New()
	n, err := s.SettleAll(context.Background(), "2024-01-01 10:00")
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestRemoveManyExactness(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _ := s.Add(ctx, draft("a", 100, core.PayerSelf))
	b, _ := s.Add(ctx, draft("b", 200, core.PayerOther))
	c, _ := s.Add(ctx, draft("c", 300, core.PayerSelf))
	s.SettleAll(ctx, "2024-01-01 10:00")

	before, _ := s.List(ctx)
	var bBefore core.Transaction
	for _, tx := range before {
		if tx.ID == b.ID {
			bBefore = tx
		}
	}

	n, err := s.RemoveMany(ctx, []string{a.ID, c.ID, "not-there"})
	if err != nil {
		t.Fatalf("removeMany: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}

	after, _ := s.List(ctx)
	if len(after) != 1 {
		t.Fatalf("len = %d", len(after))
	}
	if after[0] != bBefore {
		t.Fatalf("survivor mutated:\n got %+v\nwant %+v", after[0], bBefore)
	}
}
