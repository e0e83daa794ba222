package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PayerSelf  Payer = "SELF"
	PayerOther Payer = "OTHER"
)

const (
	// KindDebt is a new expense or loan event.
	KindDebt Kind = "DEBT"
	// KindRepayment is an explicit settling transfer. Kept for compatibility
	// with old records; new manual entry always produces KindDebt.
	KindRepayment Kind = "REPAYMENT"
)

const (
	StatusOwed    Status = "OWED"    // the other party owes self
	StatusOwing   Status = "OWING"   // self owes the other party
	StatusSettled Status = "SETTLED" // nothing outstanding
)

// SettleStampLayout is the human-readable settlement timestamp format.
const SettleStampLayout = "2006-01-02 15:04"

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

type (
	// Payer identifies which of the two fixed parties paid.
	Payer string

	// Kind distinguishes a new debt from a legacy repayment record.
	Kind string

	// Status is the tri-state outcome of a balance computation.
	Status string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger record. Once settled its fields are
	// frozen; the only remaining mutation is deletion.
	Transaction struct {
		ID        string    `json:"id"`
		Date      Date      `json:"date"`
		Item      string    `json:"item"`
		Amount    Money     `json:"amountCents"`
		Payer     Payer     `json:"payer"`
		Kind      Kind      `json:"kind"`
		CreatedAt time.Time `json:"createdAt"`
		IsSettled bool      `json:"isSettled"`
		SettledAt string    `json:"settledAt,omitempty"`
	}

	// Draft is a pre-insertion transaction payload. The store assigns
	// ID, CreatedAt and IsSettled at add time.
	Draft struct {
		Date   Date   `json:"date"`
		Item   string `json:"item"`
		Amount Money  `json:"amountCents"`
		Payer  Payer  `json:"payer"`
		Kind   Kind   `json:"kind"`
	}

	// BalanceState is derived from the record set on every read, never stored.
	BalanceState struct {
		NetAmount Money  `json:"netAmountCents"`
		Status    Status `json:"status"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyItem     = errors.New("empty item")
	ErrItemTooLong   = errors.New("item too long (max 200 characters)")
	ErrInvalidPayer  = errors.New("invalid payer")
	ErrInvalidKind   = errors.New("invalid kind")
)

func (p Payer) Valid() bool {
	return p == PayerSelf || p == PayerOther
}

func (k Kind) Valid() bool {
	return k == KindDebt || k == KindRepayment
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// SettleStamp formats the shared settlement timestamp for a bulk settlement.
// Computed once per invocation so every record in the batch carries the same
// value.
func SettleStamp(t time.Time) string {
	return t.Format(SettleStampLayout)
}

func (d Draft) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Item) == "" {
		return ErrEmptyItem
	}
	if len(d.Item) > 200 {
		return ErrItemTooLong
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Payer.Valid() {
		return ErrInvalidPayer
	}
	if !d.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}
