package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a transaction lifecycle change.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
		return true
	}
	return false
}

// TransactionEvent is a lightweight change notification. It carries only
// identifiers; consumers load the current row from the database.
type TransactionEvent struct {
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	OwnerID       int64     `json:"owner_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(typ EventType, transactionID, ownerID int64) *TransactionEvent {
	return &TransactionEvent{
		Type:          typ,
		TransactionID: transactionID,
		OwnerID:       ownerID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.TransactionID <= 0 {
		return nil, fmt.Errorf("invalid transaction id %d", ev.TransactionID)
	}
	return &ev, nil
}
