package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultAlertThreshold is the low-balance threshold of a fresh ledger.
	DefaultAlertThreshold int64 = 100_00

	// GoalContributionCategory tags the synthetic expense of a contribution.
	GoalContributionCategory = "Goal Contribution"
	// GoalContributionSource is the source of the synthetic expense.
	GoalContributionSource = "Transfer"

	dateLayout = "2006-01-02"
)

type (
	// Date is a calendar date; the time of day is always midnight UTC.
	Date struct {
		time.Time
	}

	IncomeRecord struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
		Date   Date   `json:"date"`

		extra extraFields
	}

	ExpenseRecord struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Date     Date   `json:"date"`
		Source   string `json:"source"`

		extra extraFields
	}

	// Goal is a savings target. Current only grows through contributions.
	Goal struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Target  Money  `json:"target"`
		Current Money  `json:"current"`

		extra extraFields
	}

	Settings struct {
		AlertThreshold Money `json:"alertThreshold"`

		extra extraFields
	}

	// Ledger is the whole persisted state. It is read and written wholesale.
	Ledger struct {
		Income   []IncomeRecord  `json:"income"`
		Expenses []ExpenseRecord `json:"expenses"`
		Goals    []Goal          `json:"goals"`
		Settings Settings        `json:"settings"`

		extra extraFields
	}
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	ErrEmptyName         = errors.New("empty name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrNegativeThreshold = errors.New("negative threshold")
	ErrInvalidDate       = errors.New("invalid date")

	ErrGoalNotFound = errors.New("goal not found")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewLedger returns the document used when nothing has been stored yet.
func NewLedger() Ledger {
	return Ledger{
		Income:   []IncomeRecord{},
		Expenses: []ExpenseRecord{},
		Goals:    []Goal{},
		Settings: DefaultSettings(),
	}
}

func DefaultSettings() Settings {
	return Settings{AlertThreshold: Money{Cents: DefaultAlertThreshold}}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (dates are optional on input)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("decode date %s: %w", s, ErrInvalidDate)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("decode date %s: %w", s, ErrInvalidDate)
	}
	d.Time = t
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", ErrEmptyName)
	}
	return nil
}

func validateAmount(m Money) error {
	if !m.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func (r IncomeRecord) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	return validateAmount(r.Amount)
}

func (r ExpenseRecord) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	return validateAmount(r.Amount)
}

// IsSynthetic reports whether the expense records a goal contribution.
func (r ExpenseRecord) IsSynthetic() bool {
	return r.Category == GoalContributionCategory && r.Source == GoalContributionSource
}

func (g Goal) Validate() error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	if !g.Target.IsPositive() {
		return invalid("target", ErrInvalidTarget)
	}
	if g.Current.Cents < 0 {
		return invalid("current", ErrInvalidAmount)
	}
	return nil
}

func (s Settings) Validate() error {
	if s.AlertThreshold.Cents < 0 {
		return invalid("alertThreshold", ErrNegativeThreshold)
	}
	return nil
}

// FindGoal returns the index of the goal with id, or -1.
func (l Ledger) FindGoal(id string) int {
	for i, g := range l.Goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// FindExpense returns the index of the expense with id, or -1.
func (l Ledger) FindExpense(id string) int {
	for i, e := range l.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy; mutations never touch the receiver.
func (l Ledger) Clone() Ledger {
	out := Ledger{
		Income:   make([]IncomeRecord, len(l.Income)),
		Expenses: make([]ExpenseRecord, len(l.Expenses)),
		Goals:    make([]Goal, len(l.Goals)),
		Settings: l.Settings,
		extra:    l.extra.clone(),
	}
	for i, r := range l.Income {
		r.extra = r.extra.clone()
		out.Income[i] = r
	}
	for i, r := range l.Expenses {
		r.extra = r.extra.clone()
		out.Expenses[i] = r
	}
	for i, g := range l.Goals {
		g.extra = g.extra.clone()
		out.Goals[i] = g
	}
	out.Settings.extra = l.Settings.extra.clone()
	return out
}
