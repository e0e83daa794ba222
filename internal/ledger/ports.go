// Package ledger defines the ports of the transaction store, the sole
// source of truth for balance computation.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"housetab/internal/core"
)

// Ports for the ledger store. Backends: memory, file snapshot, sqlite.
type (
	// Lister returns all records, newest first by creation instant.
	Lister interface {
		List(ctx context.Context) ([]core.Transaction, error)
	}

	// Writer appends a new record built from a validated draft.
	Writer interface {
		Add(ctx context.Context, d core.Draft) (core.Transaction, error)
	}

	// Remover deletes records. Remove of an absent id is a no-op;
	// RemoveMany deletes exactly the records whose id is in ids and
	// reports how many were removed.
	Remover interface {
		Remove(ctx context.Context, id string) error
		RemoveMany(ctx context.Context, ids []string) (int, error)
	}

	// Settler marks every unsettled record settled, stamping all of them
	// with the same settledAt value. Returns the number of records settled.
	Settler interface {
		SettleAll(ctx context.Context, stamp string) (int, error)
	}

	Store interface {
		Lister
		Writer
		Remover
		Settler
		Close() error
	}
)

// NewTransaction materializes a draft into a full record. IDs are never
// reused; settlement state always starts false.
func NewTransaction(d core.Draft, now time.Time) core.Transaction {
	return core.Transaction{
		ID:        uuid.NewString(),
		Date:      d.Date,
		Item:      d.Item,
		Amount:    d.Amount,
		Payer:     d.Payer,
		Kind:      d.Kind,
		CreatedAt: now,
		IsSettled: false,
	}
}
