// Package worker mirrors ledger changes from SQLite into the backup sheet.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"housetab/internal/amqp"
	"housetab/internal/core"
	"housetab/internal/sheets"
)

// LedgerSource is the slice of the SQLite repository the worker reads from.
type LedgerSource interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
	ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, id string) error
}

// SyncWorker applies transaction change events to the backup sheet and
// sweeps records whose events were lost.
type SyncWorker struct {
	storage   LedgerSource
	writer    sheets.BackupWriter
	deleter   sheets.BackupDeleter
	batchSize int
}

func NewSyncWorker(storage LedgerSource, writer sheets.BackupWriter, deleter sheets.BackupDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single change event from AMQP. A returned error
// requeues the message; events for records deleted in the meantime are
// dropped silently.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"tx_id", ev.ID,
		"op", ev.Op)

	switch ev.Op {
	case amqp.OpUpsert:
		return w.mirrorRecord(ctx, ev.ID)
	case amqp.OpDelete:
		if err := w.deleter.Delete(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete from backup sheet: %w", err)
		}
		slog.InfoContext(ctx, "Removed record from backup sheet", "tx_id", ev.ID)
		return nil
	default:
		// Unknown ops are never retryable; log and ack.
		slog.WarnContext(ctx, "Unknown transaction event op", "op", ev.Op, "tx_id", ev.ID)
		return nil
	}
}

// ProcessPending mirrors any records that still carry the sync-pending flag.
// This is the backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending records: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	for _, tx := range pending {
		if err := w.mirrorRecord(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror record", "tx_id", tx.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck sweeps a larger batch once at worker startup to recover
// from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending records for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending records found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending records on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, tx := range pending {
		if err := w.mirrorRecord(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror record during startup",
				"tx_id", tx.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) mirrorRecord(ctx context.Context, id string) error {
	tx, err := w.storage.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		// Deleted before the event was consumed; nothing to mirror.
		slog.WarnContext(ctx, "Record vanished before sync, skipping", "tx_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to backup sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror itself succeeded; the sweep will retry the flag.
		slog.ErrorContext(ctx, "Failed to mark record as synced", "tx_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored record to backup sheet",
		"tx_id", id,
		"sheet_ref", ref,
		"item", tx.Item,
		"amount_cents", tx.Amount.Cents)
	return nil
}
