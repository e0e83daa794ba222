package amqp

import (
	"encoding/json"
	"time"
)

// Op describes what happened to a ledger record.
type Op string

const (
	// OpUpsert covers create and settle: the worker re-reads the row from
	// storage, so the message only carries the id.
	OpUpsert Op = "upsert"
	// OpDelete removes the mirrored row from the backup sheet.
	OpDelete Op = "delete"
)

// TransactionEvent is the lightweight change notification published after
// every store mutation. The worker fetches the full record from storage.
type TransactionEvent struct {
	ID        string    `json:"id"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id string, op Op) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
