// Package storage implements the ledger store on SQLite, plus the
// sync-bookkeeping queries used by the backup worker.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"housetab/internal/core"
	"housetab/internal/ledger"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const txColumns = "id, date, item, amount_cents, payer, kind, created_at, is_settled, settled_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx        core.Transaction
		date      string
		createdAt string
		settled   int64
	)
	err := row.Scan(&tx.ID, &date, &tx.Item, &tx.Amount.Cents, &tx.Payer, &tx.Kind, &createdAt, &settled, &tx.SettledAt)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: %w", tx.ID, err)
	}
	tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record %s created_at: %w", tx.ID, err)
	}
	tx.IsSettled = settled != 0
	return tx, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx := ledger.NewTransaction(d, r.now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, item, amount_cents, payer, kind, created_at, is_settled, settled_at, sync_pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', 1)`,
		tx.ID, tx.Date.String(), tx.Item, tx.Amount.Cents, string(tx.Payer), string(tx.Kind),
		tx.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"item", tx.Item,
		"amount_cents", tx.Amount.Cents,
		"payer", tx.Payer)

	return tx, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Get returns a single record by id, for the backup worker.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// SettleAll marks every unsettled record settled with the given stamp in a
// single statement, so the batch is atomic and time-coherent.
func (r *SQLiteRepository) SettleAll(ctx context.Context, stamp string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET is_settled = 1, settled_at = ?, sync_pending = 1
		WHERE is_settled = 0`, stamp)
	if err != nil {
		return 0, fmt.Errorf("settle transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Settled all outstanding transactions",
		"count", n,
		"settled_at", stamp)
	return int(n), nil
}

// ListPendingSync returns records not yet mirrored to the backup sheet.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE sync_pending = 1 ORDER BY created_at ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// MarkSynced clears the sync flag after a successful backup append.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_pending = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}
