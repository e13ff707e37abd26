package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// extraFields holds JSON members this version does not know about, so a
// document written by a newer client survives a load/save cycle here.
type extraFields map[string]json.RawMessage

func (e extraFields) clone() extraFields {
	if e == nil {
		return nil
	}
	out := make(extraFields, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

var (
	ledgerFields   = []string{"income", "expenses", "goals", "settings"}
	incomeFields   = []string{"id", "name", "amount", "date"}
	expenseFields  = []string{"id", "name", "amount", "category", "date", "source"}
	goalFields     = []string{"id", "name", "target", "current"}
	settingsFields = []string{"alertThreshold"}
)

func marshalWithExtra(v any, extra extraFields) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, known := m[k]; !known {
			m[k] = raw
		}
	}
	return json.Marshal(m)
}

func unmarshalWithExtra(data []byte, v any, known []string) (extraFields, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(m, k)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return extraFields(m), nil
}

func (r IncomeRecord) MarshalJSON() ([]byte, error) {
	type plain IncomeRecord
	return marshalWithExtra(plain(r), r.extra)
}

func (r *IncomeRecord) UnmarshalJSON(data []byte) error {
	type plain IncomeRecord
	var p plain
	extra, err := unmarshalWithExtra(data, &p, incomeFields)
	if err != nil {
		return err
	}
	*r = IncomeRecord(p)
	r.extra = extra
	return nil
}

func (r ExpenseRecord) MarshalJSON() ([]byte, error) {
	type plain ExpenseRecord
	return marshalWithExtra(plain(r), r.extra)
}

func (r *ExpenseRecord) UnmarshalJSON(data []byte) error {
	type plain ExpenseRecord
	var p plain
	extra, err := unmarshalWithExtra(data, &p, expenseFields)
	if err != nil {
		return err
	}
	*r = ExpenseRecord(p)
	r.extra = extra
	return nil
}

func (g Goal) MarshalJSON() ([]byte, error) {
	type plain Goal
	return marshalWithExtra(plain(g), g.extra)
}

func (g *Goal) UnmarshalJSON(data []byte) error {
	type plain Goal
	var p plain
	extra, err := unmarshalWithExtra(data, &p, goalFields)
	if err != nil {
		return err
	}
	*g = Goal(p)
	g.extra = extra
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	type plain Settings
	return marshalWithExtra(plain(s), s.extra)
}

// UnmarshalJSON keeps the default threshold when the member is missing.
func (s *Settings) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	type plain Settings
	p := plain(DefaultSettings())
	extra, err := unmarshalWithExtra(data, &p, settingsFields)
	if err != nil {
		return err
	}
	*s = Settings(p)
	s.extra = extra
	return nil
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	type plain Ledger
	l = l.normalized()
	return marshalWithExtra(plain(l), l.extra)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	type plain Ledger
	p := plain{Settings: DefaultSettings()}
	extra, err := unmarshalWithExtra(data, &p, ledgerFields)
	if err != nil {
		return err
	}
	*l = Ledger(p).normalized()
	l.extra = extra
	return nil
}

// normalized swaps nil collections for empty ones so the stored shape
// always has arrays.
func (l Ledger) normalized() Ledger {
	if l.Income == nil {
		l.Income = []IncomeRecord{}
	}
	if l.Expenses == nil {
		l.Expenses = []ExpenseRecord{}
	}
	if l.Goals == nil {
		l.Goals = []Goal{}
	}
	return l
}

// EncodeLedger serializes the document in its persisted form.
func EncodeLedger(l Ledger) ([]byte, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return b, nil
}

// DecodeLedger parses a persisted document. Empty input yields NewLedger().
func DecodeLedger(data []byte) (Ledger, error) {
	if len(data) == 0 {
		return NewLedger(), nil
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return Ledger{}, fmt.Errorf("decode ledger: %w", err)
	}
	return l, nil
}

// Fingerprint is a content hash of the encoded document.
func (l Ledger) Fingerprint() string {
	b, err := EncodeLedger(l)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
