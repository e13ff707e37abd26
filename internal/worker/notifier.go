package worker

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// Notifier consumes ledger events and raises low-balance warnings
type Notifier struct {
	logger *log.Logger

	mu     sync.Mutex
	counts map[string]int
}

func NewNotifier(logger *log.Logger) *Notifier {
	return &Notifier{
		logger: logger.WithComponent(log.ComponentWorker),
		counts: make(map[string]int),
	}
}

// HandleEvent processes a single ledger event from AMQP. Unknown types are
// logged and acknowledged so they do not loop through the queue.
func (n *Notifier) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	if e == nil {
		return fmt.Errorf("nil event")
	}

	balance := core.Money{Cents: e.BalanceCents}
	threshold := core.Money{Cents: e.ThresholdCents}

	switch e.Type {
	case amqp.TypeBalanceLow:
		n.logger.WarnContext(ctx, "Balance below alert threshold",
			log.FieldEventType, e.Type,
			log.FieldOperation, e.Operation,
			"balance", balance.Dollars(),
			"threshold", threshold.Dollars())
	case amqp.TypeLedgerChanged:
		n.logger.DebugContext(ctx, "Ledger changed",
			log.FieldOperation, e.Operation,
			log.FieldBalanceCents, e.BalanceCents)
	default:
		n.logger.InfoContext(ctx, "Ignoring unknown event type", log.FieldEventType, e.Type)
		return nil
	}

	n.mu.Lock()
	n.counts[e.Type]++
	n.mu.Unlock()
	return nil
}

// Handled returns how many events of the given type were processed
func (n *Notifier) Handled(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[eventType]
}
