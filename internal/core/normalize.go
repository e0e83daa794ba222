package core

import (
	"math"
	"strings"
)

// DefaultItemLabel is used when the structured-parse boundary returns no
// usable item name.
const DefaultItemLabel = "其他"

// ParseResult is the raw, untrusted shape returned by the structured-parse
// boundary. Every field must be validated before a record is built from it.
type ParseResult struct {
	Item   string  `json:"item"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Payer  string  `json:"payer"`
	Kind   string  `json:"kind"`
}

// Normalize validates a ParseResult field by field and maps it into a
// well-formed Draft. It either returns a complete Draft or an error; a
// partially-populated record is never produced.
func Normalize(res ParseResult) (Draft, error) {
	item := strings.TrimSpace(res.Item)
	if item == "" {
		item = DefaultItemLabel
	}

	if res.Amount <= 0 || math.IsNaN(res.Amount) || math.IsInf(res.Amount, 0) {
		return Draft{}, ErrInvalidAmount
	}
	cents := int64(math.Round(res.Amount * 100))
	if cents <= 0 {
		return Draft{}, ErrInvalidAmount
	}

	date, err := ParseDate(res.Date)
	if err != nil {
		return Draft{}, err
	}

	payer := Payer(strings.ToUpper(strings.TrimSpace(res.Payer)))
	if !payer.Valid() {
		return Draft{}, ErrInvalidPayer
	}

	kind := Kind(strings.ToUpper(strings.TrimSpace(res.Kind)))
	if !kind.Valid() {
		return Draft{}, ErrInvalidKind
	}

	draft := Draft{
		Date:   date,
		Item:   item,
		Amount: Money{Cents: cents},
		Payer:  payer,
		Kind:   kind,
	}
	if err := draft.Validate(); err != nil {
		return Draft{}, err
	}
	return draft, nil
}
