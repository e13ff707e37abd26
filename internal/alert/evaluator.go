// Package alert decides the low-balance state of a ledger and whether the
// one-time interruptive notification should fire in the current session.
package alert

import (
	"fmt"
	"sync"

	"budget/internal/core"
)

type State int

const (
	Normal State = iota
	LowBalance
)

func (s State) String() string {
	switch s {
	case LowBalance:
		return "low_balance"
	default:
		return "normal"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low_balance":
		*s = LowBalance
	case "normal":
		*s = Normal
	default:
		return fmt.Errorf("unknown alert state %q", text)
	}
	return nil
}

// Evaluation is the outcome of one check.
//
// Banner is set whenever the state is LowBalance. Notification and
// ShouldNotify are set only the first time LowBalance is seen in a session.
type Evaluation struct {
	State        State      `json:"state"`
	ShouldNotify bool       `json:"shouldNotify"`
	Balance      core.Money `json:"balance"`
	Threshold    core.Money `json:"threshold"`
	Banner       string     `json:"banner,omitempty"`
	Notification string     `json:"notification,omitempty"`
}

// Evaluator holds the session-scoped "already notified" flag.
type Evaluator struct {
	mu       sync.Mutex
	notified bool
}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate compares the current balance with the configured threshold.
func (e *Evaluator) Evaluate(doc core.Ledger) Evaluation {
	balance := core.ComputeTotals(doc).CurrentBalance
	threshold := doc.Settings.AlertThreshold

	ev := Evaluation{
		State:     Normal,
		Balance:   balance,
		Threshold: threshold,
	}
	if balance.Cents >= threshold.Cents {
		return ev
	}

	ev.State = LowBalance
	ev.Banner = fmt.Sprintf("Warning: Your balance is below %s!", threshold.Dollars())

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.notified {
		e.notified = true
		ev.ShouldNotify = true
		ev.Notification = fmt.Sprintf("Your balance has dropped to %s, which is below your %s threshold.",
			balance.Dollars(), threshold.Dollars())
	}
	return ev
}

// Notified reports whether the notification already fired this session.
func (e *Evaluator) Notified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notified
}

// ResetSession clears the one-shot flag. Only a full ledger reset calls it.
func (e *Evaluator) ResetSession() {
	e.mu.Lock()
	e.notified = false
	e.mu.Unlock()
}
