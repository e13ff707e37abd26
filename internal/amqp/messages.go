package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Event types published after a committed ledger change
const (
	TypeLedgerChanged = "ledger.changed"
	TypeBalanceLow    = "balance.low"
)

var ErrMissingEventType = errors.New("event type is required")

// LedgerEvent is the message body. It carries derived numbers only, never
// the records themselves.
type LedgerEvent struct {
	Type           string    `json:"type"`
	Operation      string    `json:"operation"`
	BalanceCents   int64     `json:"balance_cents"`
	ThresholdCents int64     `json:"threshold_cents"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event with the current time
func NewLedgerEvent(eventType, operation string, balanceCents, thresholdCents int64) *LedgerEvent {
	return &LedgerEvent{
		Type:           eventType,
		Operation:      operation,
		BalanceCents:   balanceCents,
		ThresholdCents: thresholdCents,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes a message body
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, ErrMissingEventType
	}
	return &e, nil
}
