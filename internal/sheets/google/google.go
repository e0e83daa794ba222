// Package google mirrors ledger records into a Google Sheet using a
// Service Account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"housetab/internal/core"
	"housetab/internal/sheets"
)

// Backup sheet columns: A=id, B=date, C=item, D=amount, E=payer, F=kind,
// G=createdAt, H=settledAt (empty while unsettled).
const lastColumn = "H"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
	sheetIDKnown  bool
}

var (
	_ sheets.BackupWriter  = (*Client)(nil)
	_ sheets.BackupDeleter = (*Client)(nil)
)

// New creates a backup client for the given spreadsheet and sheet name.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// findRow returns the zero-based data row index of txID in column A, or -1.
func (c *Client) findRow(ctx context.Context, txID string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return -1, fmt.Errorf("read id column of %s: %w", c.sheetName, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if s, ok := row[0].(string); ok && strings.TrimSpace(s) == txID {
			return i, nil
		}
	}
	return -1, nil
}

func rowValues(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Date.String(),
		tx.Item,
		tx.Amount.Units(),
		string(tx.Payer),
		string(tx.Kind),
		tx.CreatedAt.Format(time.RFC3339),
		tx.SettledAt,
	}
}

// Append writes the record to its existing row when the id is already
// mirrored (settle updates reuse the row), otherwise to the next free row.
func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	idx, err := c.findRow(ctx, tx.ID)
	if err != nil {
		return "", err
	}

	var rowNum int
	if idx >= 0 {
		rowNum = idx + 1
	} else {
		rng := fmt.Sprintf("%s!A:A", c.sheetName)
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
		}
		rowNum = len(resp.Values) + 1
	}

	dataRange := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, rowNum, lastColumn, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(tx)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Mirrored transaction to backup sheet",
		"tx_id", tx.ID,
		"sheets_ref", dataRange)

	return dataRange, nil
}

// Delete removes the mirrored row for txID. Unknown ids are a no-op.
func (c *Client) Delete(ctx context.Context, txID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	idx, err := c.findRow(ctx, txID)
	if err != nil {
		return err
	}
	if idx < 0 {
		slog.DebugContext(ctx, "Transaction not mirrored, nothing to delete", "tx_id", txID)
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", idx+1, c.sheetName, err)
	}

	slog.InfoContext(ctx, "Deleted mirrored transaction from backup sheet", "tx_id", txID)
	return nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	if c.sheetIDKnown {
		return c.sheetID, nil
	}

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.sheetID = sh.Properties.SheetId
			c.sheetIDKnown = true
			return c.sheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
