// Package services orchestrates ledger operations across the store, the
// change-event publisher and the structured-parse boundary.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"housetab/internal/amqp"
	"housetab/internal/core"
	"housetab/internal/ledger"
)

var (
	// ErrNothingToSettle guards the settlement precondition: settling with
	// no outstanding records must not be invocable, so no stamp is ever
	// generated for an empty batch.
	ErrNothingToSettle = errors.New("no unsettled transactions to settle")

	// ErrNothingSettled guards selective clearing when no settled history
	// exists.
	ErrNothingSettled = errors.New("no settled transactions to clear")

	// ErrNoSelection is returned when clearing is invoked with an empty
	// id set.
	ErrNoSelection = errors.New("no transactions selected")
)

// Publisher is the slice of the AMQP client the service needs. Nil disables
// change events; the ledger itself stays fully functional.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, id string, op amqp.Op) error
}

type LedgerService struct {
	store ledger.Store
	pub   Publisher
	now   func() time.Time
}

func NewLedgerService(store ledger.Store, pub Publisher) *LedgerService {
	return &LedgerService{store: store, pub: pub, now: time.Now}
}

// Add validates the draft, appends the record and publishes a change event.
// A failed publish never fails the mutation; the record is already durable.
func (s *LedgerService) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	tx, err := s.store.Add(ctx, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	s.publish(ctx, tx.ID, amqp.OpUpsert)

	slog.InfoContext(ctx, "Transaction added",
		"tx_id", tx.ID,
		"item", tx.Item,
		"amount_cents", tx.Amount.Cents,
		"payer", tx.Payer,
		"kind", tx.Kind)
	return tx, nil
}

// List returns all records, newest first.
func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.List(ctx)
}

// Balance recomputes the net position from the full record set.
func (s *LedgerService) Balance(ctx context.Context) (core.BalanceState, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return core.BalanceState{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.Balance(txs), nil
}

// Delete removes one record regardless of its settlement state.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, id, amqp.OpDelete)
	slog.InfoContext(ctx, "Transaction deleted", "tx_id", id)
	return nil
}

// SettleAll marks every outstanding record settled under one shared stamp.
// Returns the stamp and how many records it touched.
func (s *LedgerService) SettleAll(ctx context.Context) (int, string, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("load transactions: %w", err)
	}

	var outstanding []string
	for _, tx := range txs {
		if !tx.IsSettled {
			outstanding = append(outstanding, tx.ID)
		}
	}
	if len(outstanding) == 0 {
		return 0, "", ErrNothingToSettle
	}

	// One stamp per invocation, not per record.
	stamp := core.SettleStamp(s.now())
	n, err := s.store.SettleAll(ctx, stamp)
	if err != nil {
		return 0, "", fmt.Errorf("settle transactions: %w", err)
	}

	for _, id := range outstanding {
		s.publish(ctx, id, amqp.OpUpsert)
	}

	slog.InfoContext(ctx, "Settled all outstanding transactions",
		"count", n,
		"settled_at", stamp)
	return n, stamp, nil
}

// ClearSettled permanently removes the selected records. The selection is
// expected to hold settled ids; the delete itself is a blind filter and
// does not re-verify settlement state.
func (s *LedgerService) ClearSettled(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoSelection
	}

	txs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	hasSettled := false
	for _, tx := range txs {
		if tx.IsSettled {
			hasSettled = true
			break
		}
	}
	if !hasSettled {
		return 0, ErrNothingSettled
	}

	n, err := s.store.RemoveMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("clear transactions: %w", err)
	}

	for _, id := range ids {
		s.publish(ctx, id, amqp.OpDelete)
	}

	slog.InfoContext(ctx, "Cleared settled transactions", "count", n)
	return n, nil
}

func (s *LedgerService) publish(ctx context.Context, id string, op amqp.Op) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishTransactionEvent(ctx, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"error", err,
			"tx_id", id,
			"op", op)
	}
}

func (s *LedgerService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
