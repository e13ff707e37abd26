package core

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

// testMutator issues sequential ids and a fixed clock.
func testMutator() Mutator {
	n := 0
	return Mutator{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC) },
	}
}

func TestIncomeExpenseScenario(t *testing.T) {
	m := testMutator()
	doc, err := m.AddIncome(NewLedger(), "Paycheck", MustMoney("1000"), Date{})
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	doc, err = m.AddExpense(doc, ExpenseInput{Name: "Rent", Amount: MustMoney("400"), Category: "Housing"})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	want := Totals{TotalIncome: MustMoney("1000"), TotalExpenses: MustMoney("400"), CurrentBalance: MustMoney("600")}
	if got := ComputeTotals(doc); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if doc.Income[0].ID != "id-1" || doc.Expenses[0].ID != "id-2" {
		t.Fatalf("ids not assigned: %+v", doc)
	}
	if !doc.Income[0].Date.Equal(NewDate(2025, 6, 15).Time) {
		t.Fatalf("date should default to today, got %v", doc.Income[0].Date)
	}
}

func TestAddExpenseIncreasesTotalByAmount(t *testing.T) {
	m := testMutator()
	doc := sampleLedger()
	for _, amt := range []string{"0.01", "3.33", "999999.99"} {
		before := ComputeTotals(doc).TotalExpenses
		next, err := m.AddExpense(doc, ExpenseInput{Name: "x", Amount: MustMoney(amt), Category: "c", Date: NewDate(2024, 2, 29)})
		if err != nil {
			t.Fatalf("%s: %v", amt, err)
		}
		after := ComputeTotals(next).TotalExpenses
		if after.Cents != before.Cents+MustMoney(amt).Cents {
			t.Fatalf("%s: before %v after %v", amt, before, after)
		}
		if !next.Expenses[len(next.Expenses)-1].Date.Equal(NewDate(2024, 2, 29).Time) {
			t.Fatalf("explicit date not kept")
		}
		doc = next
	}
}

func TestValidationLeavesLedgerUnchanged(t *testing.T) {
	m := testMutator()
	doc := sampleLedger()
	snapshot := doc.Clone()

	cases := []struct {
		name string
		run  func() (Ledger, error)
		want error
	}{
		{"income empty name", func() (Ledger, error) { return m.AddIncome(doc, " ", MustMoney("1"), Date{}) }, ErrEmptyName},
		{"income zero", func() (Ledger, error) { return m.AddIncome(doc, "x", Money{}, Date{}) }, ErrInvalidAmount},
		{"expense negative", func() (Ledger, error) {
			return m.AddExpense(doc, ExpenseInput{Name: "x", Amount: Money{Cents: -1}})
		}, ErrInvalidAmount},
		{"goal zero target", func() (Ledger, error) { return m.AddGoal(doc, "x", Money{}) }, ErrInvalidTarget},
		{"goal empty name", func() (Ledger, error) { return m.AddGoal(doc, "", MustMoney("5")) }, ErrEmptyName},
		{"contribute zero", func() (Ledger, error) { return m.ContributeToGoal(doc, "g1", Money{}) }, ErrInvalidAmount},
		{"threshold negative", func() (Ledger, error) { return m.SetAlertThreshold(doc, Money{Cents: -100}) }, ErrNegativeThreshold},
	}
	for _, tc := range cases {
		got, err := tc.run()
		if !errors.Is(err, ErrValidation) || !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !reflect.DeepEqual(got, snapshot) || !reflect.DeepEqual(doc, snapshot) {
			t.Fatalf("%s: ledger changed on validation failure", tc.name)
		}
	}
}

func TestDeleteExpenseIsIdempotent(t *testing.T) {
	m := testMutator()
	doc := sampleLedger()

	once, err := m.DeleteExpense(doc, "e1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	twice, err := m.DeleteExpense(once, "e1")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second delete changed the ledger")
	}
	if len(once.Expenses) != 1 || once.Expenses[0].ID != "e2" {
		t.Fatalf("wrong expense removed: %+v", once.Expenses)
	}
	if len(doc.Expenses) != 2 {
		t.Fatalf("input ledger was modified")
	}

	missing, err := m.DeleteExpense(doc, "nope")
	if err != nil || !reflect.DeepEqual(missing, doc) {
		t.Fatalf("missing id should be a no-op, err=%v", err)
	}
}

func TestAddGoalStartsAtZero(t *testing.T) {
	doc, err := testMutator().AddGoal(NewLedger(), "Emergency fund", MustMoney("1000"))
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}
	g := doc.Goals[0]
	if g.ID == "" || g.Current.Cents != 0 || g.Target != MustMoney("1000") || g.Name != "Emergency fund" {
		t.Fatalf("unexpected goal %+v", g)
	}
}

func TestContributeToGoalScenario(t *testing.T) {
	m := testMutator()
	doc, err := m.AddGoal(NewLedger(), "Trip", MustMoney("200"))
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}
	goalID := doc.Goals[0].ID
	before := len(doc.Expenses)

	next, err := m.ContributeToGoal(doc, goalID, MustMoney("50"))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}

	g := next.Goals[0]
	if g.Current != MustMoney("50") {
		t.Fatalf("current = %v, want 50", g.Current)
	}
	if GoalProgress(g).IsComplete {
		t.Fatalf("goal should not be complete")
	}
	if len(next.Expenses) != before+1 {
		t.Fatalf("expected exactly one new expense, got %d", len(next.Expenses)-before)
	}
	exp := next.Expenses[len(next.Expenses)-1]
	if exp.Amount != MustMoney("50") || exp.Category != GoalContributionCategory || exp.Source != GoalContributionSource {
		t.Fatalf("synthetic expense wrong: %+v", exp)
	}
	if exp.Name != `Contribution to "Trip"` || !exp.IsSynthetic() {
		t.Fatalf("synthetic expense name %q", exp.Name)
	}
	if !exp.Date.Equal(NewDate(2025, 6, 15).Time) {
		t.Fatalf("contribution should be dated today, got %v", exp.Date)
	}
	if doc.Goals[0].Current.Cents != 0 || len(doc.Expenses) != before {
		t.Fatalf("input ledger was modified")
	}
}

func TestContributionNameKeepsGoalNameVerbatim(t *testing.T) {
	m := testMutator()
	tests := map[string]string{
		`My "Big" Goal`: `Contribution to "My "Big" Goal"`,
		`C:\savings`:    `Contribution to "C:\savings"`,
		"Café ☕":        `Contribution to "Café ☕"`,
	}
	for name, want := range tests {
		doc, err := m.AddGoal(NewLedger(), name, MustMoney("10"))
		if err != nil {
			t.Fatalf("add goal %q: %v", name, err)
		}
		next, err := m.ContributeToGoal(doc, doc.Goals[0].ID, MustMoney("1"))
		if err != nil {
			t.Fatalf("contribute to %q: %v", name, err)
		}
		if got := next.Expenses[0].Name; got != want {
			t.Fatalf("name = %q, want %q", got, want)
		}
	}
}

func TestContributeToMissingGoal(t *testing.T) {
	doc := sampleLedger()
	got, err := testMutator().ContributeToGoal(doc, "missing", MustMoney("10"))
	if !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("not-found must not be reported as validation")
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("ledger changed")
	}
}

func TestSetAlertThreshold(t *testing.T) {
	doc, err := testMutator().SetAlertThreshold(NewLedger(), Money{})
	if err != nil || doc.Settings.AlertThreshold.Cents != 0 {
		t.Fatalf("zero threshold: %v err=%v", doc.Settings.AlertThreshold, err)
	}
}

func TestNewMutatorIDsAreUnique(t *testing.T) {
	m := NewMutator()
	doc := NewLedger()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		var err error
		doc, err = m.AddIncome(doc, "x", MustMoney("1"), Date{})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		id := doc.Income[len(doc.Income)-1].ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
