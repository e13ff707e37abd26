package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mutator produces the next ledger for each state transition. Every method
// validates first and works on a clone, so on error the input comes back
// untouched and on success both halves of a change land together.
type Mutator struct {
	NewID func() string
	Now   func() time.Time
}

// NewMutator returns a Mutator backed by random UUIDs and the wall clock.
func NewMutator() Mutator {
	return Mutator{NewID: uuid.NewString, Now: time.Now}
}

// ExpenseInput carries the caller-supplied fields of a new expense.
type ExpenseInput struct {
	Name     string
	Amount   Money
	Category string
	Date     Date
	Source   string
}

func (m Mutator) today() Date {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return DateOf(now())
}

func (m Mutator) id() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

func (m Mutator) dateOrToday(d Date) Date {
	if d.IsEmpty() {
		return m.today()
	}
	return d
}

func (m Mutator) AddIncome(doc Ledger, name string, amount Money, date Date) (Ledger, error) {
	rec := IncomeRecord{
		Name:   strings.TrimSpace(name),
		Amount: amount,
		Date:   date,
	}
	if err := rec.Validate(); err != nil {
		return doc, err
	}
	rec.ID = m.id()
	rec.Date = m.dateOrToday(date)

	next := doc.Clone()
	next.Income = append(next.Income, rec)
	return next, nil
}

func (m Mutator) AddExpense(doc Ledger, in ExpenseInput) (Ledger, error) {
	rec := ExpenseRecord{
		Name:     strings.TrimSpace(in.Name),
		Amount:   in.Amount,
		Category: strings.TrimSpace(in.Category),
		Source:   strings.TrimSpace(in.Source),
	}
	if err := rec.Validate(); err != nil {
		return doc, err
	}
	rec.ID = m.id()
	rec.Date = m.dateOrToday(in.Date)

	next := doc.Clone()
	next.Expenses = append(next.Expenses, rec)
	return next, nil
}

// DeleteExpense drops the expense with id. A missing id is not an error.
func (m Mutator) DeleteExpense(doc Ledger, id string) (Ledger, error) {
	next := doc.Clone()
	if i := next.FindExpense(id); i >= 0 {
		next.Expenses = append(next.Expenses[:i], next.Expenses[i+1:]...)
	}
	return next, nil
}

func (m Mutator) AddGoal(doc Ledger, name string, target Money) (Ledger, error) {
	g := Goal{Name: strings.TrimSpace(name), Target: target}
	if err := g.Validate(); err != nil {
		return doc, err
	}
	g.ID = m.id()

	next := doc.Clone()
	next.Goals = append(next.Goals, g)
	return next, nil
}

// ContributeToGoal raises the goal's saved amount and records the same
// amount as a "Goal Contribution" expense in one returned ledger.
func (m Mutator) ContributeToGoal(doc Ledger, goalID string, amount Money) (Ledger, error) {
	if err := validateAmount(amount); err != nil {
		return doc, err
	}
	i := doc.FindGoal(goalID)
	if i < 0 {
		return doc, fmt.Errorf("contribute to %q: %w", goalID, ErrGoalNotFound)
	}

	next := doc.Clone()
	goal := &next.Goals[i]
	goal.Current = goal.Current.Add(amount)
	next.Expenses = append(next.Expenses, ExpenseRecord{
		ID:       m.id(),
		Name:     `Contribution to "` + goal.Name + `"`,
		Amount:   amount,
		Category: GoalContributionCategory,
		Date:     m.today(),
		Source:   GoalContributionSource,
	})
	return next, nil
}

func (m Mutator) SetAlertThreshold(doc Ledger, value Money) (Ledger, error) {
	s := doc.Settings
	s.AlertThreshold = value
	if err := s.Validate(); err != nil {
		return doc, err
	}
	next := doc.Clone()
	next.Settings.AlertThreshold = value
	return next, nil
}
