// Package smart defines the structured-parse boundary: turning free-text
// or voice-transcript input into a candidate transaction record via an
// external language model.
package smart

import (
	"context"
	"errors"

	"housetab/internal/core"
)

// ErrUnparseable is returned when the model produced no usable result for
// the given input. Callers must surface a retry prompt and never insert a
// partial record; service errors and unparseable input are handled the
// same way.
var ErrUnparseable = errors.New("input could not be parsed into a transaction")

// Parser is the single-shot structured-parse call. The result is raw and
// untrusted; it must go through core.Normalize before entering the ledger.
type Parser interface {
	Parse(ctx context.Context, freeText string) (core.ParseResult, error)
}
