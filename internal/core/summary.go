package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Totals are the ledger-wide sums.
type Totals struct {
	TotalIncome    Money `json:"totalIncome"`
	TotalExpenses  Money `json:"totalExpenses"`
	CurrentBalance Money `json:"currentBalance"`
}

// CategoryShare is an amount aggregated by category name.
type CategoryShare struct {
	Category string  `json:"category"`
	Amount   Money   `json:"amount"`
	Percent  float64 `json:"percent"`
}

// Progress is how far a goal is from its target.
type Progress struct {
	Percent    float64 `json:"percent"`
	IsComplete bool    `json:"isComplete"`
	Remaining  Money   `json:"remaining"`
}

// GoalStatus pairs a goal with its progress.
type GoalStatus struct {
	Goal     Goal     `json:"goal"`
	Progress Progress `json:"progress"`
}

// Summary is a compact dashboard view of one ledger snapshot.
type Summary struct {
	Totals     Totals          `json:"totals"`
	Categories []CategoryShare `json:"categories"`
	Goals      []GoalStatus    `json:"goals"`
	Recent     []ExpenseRecord `json:"recent"`
	Threshold  Money           `json:"alertThreshold"`
}

// Clone copies the slices so the result can be changed without touching s.
func (s Summary) Clone() Summary {
	s.Categories = slices.Clone(s.Categories)
	s.Goals = slices.Clone(s.Goals)
	s.Recent = slices.Clone(s.Recent)
	return s
}

// ComputeTotals sums income and expenses and derives the balance.
func ComputeTotals(doc Ledger) Totals {
	var t Totals
	for _, r := range doc.Income {
		t.TotalIncome = t.TotalIncome.Add(r.Amount)
	}
	for _, e := range doc.Expenses {
		t.TotalExpenses = t.TotalExpenses.Add(e.Amount)
	}
	t.CurrentBalance = t.TotalIncome.Sub(t.TotalExpenses)
	return t
}

// CategoryBreakdown groups expenses by category, largest first. Equal
// amounts keep the order in which their category first appeared.
func CategoryBreakdown(doc Ledger) []CategoryShare {
	var (
		order  []string
		byName = make(map[string]Money)
		total  Money
	)
	for _, e := range doc.Expenses {
		if _, seen := byName[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byName[e.Category] = byName[e.Category].Add(e.Amount)
		total = total.Add(e.Amount)
	}

	out := make([]CategoryShare, 0, len(order))
	for _, name := range order {
		amt := byName[name]
		out = append(out, CategoryShare{
			Category: name,
			Amount:   amt,
			Percent:  percentOf(amt, total),
		})
	}
	slices.SortStableFunc(out, func(a, b CategoryShare) int {
		switch {
		case a.Amount.Cents > b.Amount.Cents:
			return -1
		case a.Amount.Cents < b.Amount.Cents:
			return 1
		}
		return 0
	})
	return out
}

// percentOf returns part/whole*100, or 0 for a zero whole.
func percentOf(part, whole Money) float64 {
	if whole.Cents == 0 {
		return 0
	}
	p := decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole.Cents), 8)
	return p.InexactFloat64()
}

// GoalProgress reports percent and completion. Targets are positive by
// construction, so no zero guard is needed here.
func GoalProgress(g Goal) Progress {
	remaining := g.Target.Sub(g.Current)
	if remaining.Cents < 0 {
		remaining = Money{}
	}
	return Progress{
		Percent:    percentOf(g.Current, g.Target),
		IsComplete: g.Current.Cents >= g.Target.Cents,
		Remaining:  remaining,
	}
}

// RecentExpenses returns the last n expenses by insertion, newest first.
func RecentExpenses(doc Ledger, n int) []ExpenseRecord {
	if n <= 0 {
		return []ExpenseRecord{}
	}
	if n > len(doc.Expenses) {
		n = len(doc.Expenses)
	}
	out := make([]ExpenseRecord, 0, n)
	for i := len(doc.Expenses) - 1; i >= len(doc.Expenses)-n; i-- {
		out = append(out, doc.Expenses[i])
	}
	return out
}

// ExpensesByDate lists all expenses newest date first; same-day entries
// keep insertion order.
func ExpensesByDate(doc Ledger) []ExpenseRecord {
	out := slices.Clone(doc.Expenses)
	if out == nil {
		out = []ExpenseRecord{}
	}
	slices.SortStableFunc(out, func(a, b ExpenseRecord) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}

// Summarize derives every dashboard value from one snapshot.
func Summarize(doc Ledger, recent int) Summary {
	goals := make([]GoalStatus, 0, len(doc.Goals))
	for _, g := range doc.Goals {
		goals = append(goals, GoalStatus{Goal: g, Progress: GoalProgress(g)})
	}
	return Summary{
		Totals:     ComputeTotals(doc),
		Categories: CategoryBreakdown(doc),
		Goals:      goals,
		Recent:     RecentExpenses(doc, recent),
		Threshold:  doc.Settings.AlertThreshold,
	}
}
