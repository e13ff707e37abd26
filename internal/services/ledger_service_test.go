package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"budget/internal/alert"
	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/storage"
	"budget/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// failingStore loads normally but refuses every save
type failingStore struct {
	storage.DocumentStore
}

func (failingStore) Save(context.Context, core.Ledger) error {
	return fmt.Errorf("save ledger: %w", storage.ErrStorageUnavailable)
}

func (f failingStore) Update(ctx context.Context, fn storage.UpdateFunc) (core.Ledger, error) {
	doc, err := f.Load(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	if _, err := fn(doc); err != nil {
		return core.Ledger{}, err
	}
	return core.Ledger{}, f.Save(ctx, doc)
}

func testMutator() core.Mutator {
	var mu sync.Mutex
	n := 0
	return core.Mutator{
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) },
	}
}

func newTestService(t *testing.T, opts ...Option) (*LedgerService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	opts = append([]Option{WithMutator(testMutator()), WithPublisher(pub)}, opts...)
	return NewLedgerService(memory.New(), opts...), pub
}

func TestLedgerService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.AddIncome(ctx, "Paycheck", core.MustMoney("1000"), core.Date{}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	res, err := svc.AddExpense(ctx, core.ExpenseInput{Name: "Rent", Amount: core.MustMoney("400"), Category: "Housing"})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	totals := core.ComputeTotals(res.Ledger)
	if totals.TotalIncome.Cents != 1000_00 || totals.TotalExpenses.Cents != 400_00 || totals.CurrentBalance.Cents != 600_00 {
		t.Fatalf("totals = %+v", totals)
	}
	if res.Alert.State != alert.Normal {
		t.Fatalf("alert state = %v, want normal", res.Alert.State)
	}

	stored, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(stored.Expenses) != 1 || stored.Expenses[0].Date.String() != "2025-06-15" {
		t.Fatalf("stored expenses = %+v", stored.Expenses)
	}
}

func TestLedgerService_ValidationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t)

	if _, err := svc.AddIncome(ctx, "Paycheck", core.MustMoney("50"), core.Date{}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	before, _ := svc.Snapshot(ctx)
	published := len(pub.types())

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"blank expense name", func() error {
			_, err := svc.AddExpense(ctx, core.ExpenseInput{Name: " ", Amount: core.MustMoney("1")})
			return err
		}, core.ErrEmptyName},
		{"zero income", func() error {
			_, err := svc.AddIncome(ctx, "Gift", core.Money{}, core.Date{})
			return err
		}, core.ErrInvalidAmount},
		{"zero goal target", func() error {
			_, err := svc.AddGoal(ctx, "Trip", core.Money{})
			return err
		}, core.ErrInvalidTarget},
		{"unknown goal", func() error {
			_, err := svc.ContributeToGoal(ctx, "missing", core.MustMoney("5"))
			return err
		}, core.ErrGoalNotFound},
		{"negative threshold", func() error {
			_, err := svc.SetAlertThreshold(ctx, core.Money{Cents: -1})
			return err
		}, core.ErrNegativeThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}

	after, _ := svc.Snapshot(ctx)
	if after.Fingerprint() != before.Fingerprint() {
		t.Fatalf("rejected operations changed the stored ledger")
	}
	if got := len(pub.types()); got != published {
		t.Fatalf("rejected operations published %d events", got-published)
	}
}

func TestLedgerService_SaveFailure(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewLedgerService(failingStore{memory.New()}, WithPublisher(pub))

	_, err := svc.AddIncome(ctx, "Paycheck", core.MustMoney("10"), core.Date{})
	if !IsStorageError(err) {
		t.Fatalf("error = %v, want storage error", err)
	}
	if len(pub.types()) != 0 {
		t.Fatalf("events published for an unsaved change: %v", pub.types())
	}
}

func TestLedgerService_ConcurrentContributions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := svc.AddGoal(ctx, "Emergency fund", core.MustMoney("1000"))
	if err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	goalID := res.Ledger.Goals[0].ID

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ContributeToGoal(ctx, goalID, core.MustMoney("5")); err != nil {
				t.Errorf("ContributeToGoal: %v", err)
			}
		}()
	}
	wg.Wait()

	doc, _ := svc.Snapshot(ctx)
	if got := doc.Goals[0].Current.Cents; got != workers*5_00 {
		t.Fatalf("goal current = %d, want %d", got, workers*5_00)
	}
	if len(doc.Expenses) != workers {
		t.Fatalf("synthetic expenses = %d, want %d", len(doc.Expenses), workers)
	}
	for _, e := range doc.Expenses {
		if !e.IsSynthetic() {
			t.Fatalf("unexpected expense %+v", e)
		}
	}
}

func TestLedgerService_AlertEventsOncePerSession(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t)

	steps := []func() (Result, error){
		func() (Result, error) { return svc.AddIncome(ctx, "Paycheck", core.MustMoney("150"), core.Date{}) },
		func() (Result, error) {
			return svc.AddExpense(ctx, core.ExpenseInput{Name: "Groceries", Amount: core.MustMoney("100"), Category: "Food"})
		},
		func() (Result, error) {
			return svc.AddExpense(ctx, core.ExpenseInput{Name: "Taxi", Amount: core.MustMoney("10"), Category: "Transport"})
		},
	}

	var notified int
	for i, step := range steps {
		res, err := step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Alert.ShouldNotify {
			notified++
		}
	}
	if notified != 1 {
		t.Fatalf("notified %d times, want 1", notified)
	}

	low := 0
	for _, typ := range pub.types() {
		if typ == amqp.TypeBalanceLow {
			low++
		}
	}
	if low != 1 {
		t.Fatalf("balance.low events = %d, want 1 (all: %v)", low, pub.types())
	}

	ev, err := svc.EvaluateAlert(ctx)
	if err != nil {
		t.Fatalf("EvaluateAlert: %v", err)
	}
	if ev.State != alert.LowBalance || ev.ShouldNotify || ev.Banner == "" {
		t.Fatalf("evaluation = %+v, want suppressed low balance with banner", ev)
	}

	res, err := svc.ResetAll(ctx)
	if err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if len(res.Ledger.Expenses) != 0 || res.Ledger.Settings.AlertThreshold.Cents != core.DefaultAlertThreshold {
		t.Fatalf("reset ledger = %+v", res.Ledger)
	}
	if !res.Alert.ShouldNotify {
		t.Fatalf("notification should be re-armed after reset")
	}
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.AddIncome(ctx, "Paycheck", core.MustMoney("10"), core.Date{}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	doc, _ := svc.Snapshot(ctx)
	if len(doc.Income) != 1 {
		t.Fatalf("income not stored")
	}
}

func TestLedgerService_SummaryCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithSummaryCache(8, time.Minute))

	svc.AddIncome(ctx, "Paycheck", core.MustMoney("1000"), core.Date{})
	svc.AddExpense(ctx, core.ExpenseInput{Name: "Rent", Amount: core.MustMoney("400"), Category: "Housing"})

	first, err := svc.Summary(ctx, 5)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if _, err := svc.Summary(ctx, 5); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if st := svc.SummaryCache().Stats(); st.Hits != 1 {
		t.Fatalf("cache stats = %+v, want one hit", st)
	}
	if first.Totals.CurrentBalance.Cents != 600_00 || len(first.Recent) != 1 {
		t.Fatalf("summary = %+v", first)
	}

	// a new expense changes the fingerprint, so the cached entry is bypassed
	svc.AddExpense(ctx, core.ExpenseInput{Name: "Coffee", Amount: core.MustMoney("4"), Category: "Food"})
	next, _ := svc.Summary(ctx, 5)
	if next.Totals.TotalExpenses.Cents != 404_00 {
		t.Fatalf("stale summary: %+v", next.Totals)
	}

	svc.ResetAll(ctx)
	if svc.SummaryCache().Size() != 0 {
		t.Fatalf("reset should purge the summary cache")
	}
}

func TestLedgerService_SummaryCopiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithSummaryCache(8, time.Minute))

	svc.AddIncome(ctx, "Paycheck", core.MustMoney("1000"), core.Date{})
	svc.AddExpense(ctx, core.ExpenseInput{Name: "Rent", Amount: core.MustMoney("400"), Category: "Housing"})
	svc.AddGoal(ctx, "Bike", core.MustMoney("300"))

	first, err := svc.Summary(ctx, 5)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	first.Categories[0].Category = "edited"
	first.Goals[0].Goal.Name = "edited"
	first.Recent[0].Name = "edited"

	second, err := svc.Summary(ctx, 5)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if svc.SummaryCache().Stats().Hits != 1 {
		t.Fatalf("second call should be served from the cache")
	}
	if second.Categories[0].Category != "Housing" || second.Goals[0].Goal.Name != "Bike" || second.Recent[0].Name != "Rent" {
		t.Fatalf("cached summary changed through a caller's copy: %+v", second)
	}
}

func TestLedgerService_ListsAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	svc.AddExpense(ctx, core.ExpenseInput{Name: "Old", Amount: core.MustMoney("1"), Date: core.NewDate(2025, 1, 1)})
	res, _ := svc.AddExpense(ctx, core.ExpenseInput{Name: "New", Amount: core.MustMoney("2"), Date: core.NewDate(2025, 3, 1)})
	svc.AddGoal(ctx, "Bike", core.MustMoney("300"))

	list, err := svc.Expenses(ctx)
	if err != nil {
		t.Fatalf("Expenses: %v", err)
	}
	if len(list) != 2 || list[0].Name != "New" {
		t.Fatalf("expenses = %+v", list)
	}

	goals, err := svc.Goals(ctx)
	if err != nil || len(goals) != 1 || goals[0].Progress.IsComplete {
		t.Fatalf("goals = %+v, err = %v", goals, err)
	}

	newID := res.Ledger.Expenses[1].ID
	if _, err := svc.DeleteExpense(ctx, newID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := svc.DeleteExpense(ctx, "does-not-exist"); err != nil {
		t.Fatalf("deleting a missing id should be a no-op: %v", err)
	}
	doc, _ := svc.Snapshot(ctx)
	if len(doc.Expenses) != 1 || doc.Expenses[0].Name != "Old" {
		t.Fatalf("expenses after delete = %+v", doc.Expenses)
	}
}
