package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil || !d.Equal(NewDate(2025, 3, 9).Time) {
		t.Fatalf("got %v err=%v", d, err)
	}
	if d, err := ParseDate("  "); err != nil || !d.IsEmpty() {
		t.Fatalf("blank should be the zero date, got %v err=%v", d, err)
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrValidation) || !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := ExpenseRecord{Name: "Rent", Amount: Money{Cents: 100}, Category: "Housing"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    ExpenseRecord
		want error
	}{
		{ExpenseRecord{Name: "", Amount: Money{Cents: 1}}, ErrEmptyName},
		{ExpenseRecord{Name: "   ", Amount: Money{Cents: 1}}, ErrEmptyName},
		{ExpenseRecord{Name: "a", Amount: Money{Cents: 0}}, ErrInvalidAmount},
		{ExpenseRecord{Name: "a", Amount: Money{Cents: -5}}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		if !errors.Is(err, ErrValidation) || !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestGoalAndSettingsValidate(t *testing.T) {
	if err := (Goal{Name: "Trip", Target: Money{Cents: 1}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Goal{Name: "Trip"}).Validate(); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if err := (Settings{AlertThreshold: Money{}}).Validate(); err != nil {
		t.Fatalf("zero threshold should be allowed, got %v", err)
	}
	if err := (Settings{AlertThreshold: Money{Cents: -1}}).Validate(); !errors.Is(err, ErrNegativeThreshold) {
		t.Fatalf("expected ErrNegativeThreshold, got %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := invalid("amount", ErrInvalidAmount)
	if err.Error() != "amount: invalid amount" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := NewLedger()
	doc.Goals = append(doc.Goals, Goal{ID: "g1", Name: "Trip", Target: Money{Cents: 100}})
	doc.Expenses = append(doc.Expenses, ExpenseRecord{ID: "e1", Name: "x", Amount: Money{Cents: 1}})

	cp := doc.Clone()
	cp.Goals[0].Current = Money{Cents: 50}
	cp.Expenses[0].Name = "changed"

	if doc.Goals[0].Current.Cents != 0 || doc.Expenses[0].Name != "x" {
		t.Fatalf("clone shares storage with original: %+v", doc)
	}
}
