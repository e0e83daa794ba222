// Package sheets holds the outbound ports for the off-device ledger backup.
package sheets

import (
	"context"

	"housetab/internal/core"
)

// Ports for outbound backup adapters.
type (
	// BackupWriter mirrors one ledger record into the backup sheet.
	// Appending an id that is already mirrored replaces the old row.
	BackupWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// BackupDeleter removes a mirrored record by transaction id.
	// Unknown ids are a no-op.
	BackupDeleter interface {
		Delete(ctx context.Context, txID string) error
	}
)
