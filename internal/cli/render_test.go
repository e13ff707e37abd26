package cli

import (
	"strings"
	"testing"

	"budget/internal/alert"
	"budget/internal/core"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Goals",
		Headers: []string{"Goal", "Saved"},
		Rows:    [][]string{{"Bike", "$50.00"}, {"Emergency fund", "$1,000.00"}},
	})
	for _, want := range []string{"Goals", "Emergency fund", "$50.00", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}

	if empty := RenderTable(Table{Title: "Goals", Headers: []string{"Goal"}}); !strings.Contains(empty, "(none)") {
		t.Fatalf("empty table should render a placeholder: %q", empty)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{25, 5},
		{100, 20},
		{250, 20},
		{-10, 0},
	}
	for _, tt := range tests {
		out := RenderProgressBar(tt.percent, 20)
		if got := strings.Count(out, "█"); got != tt.filled {
			t.Fatalf("RenderProgressBar(%v) filled %d, want %d: %s", tt.percent, got, tt.filled, out)
		}
	}
	if RenderProgressBar(50, 0) != "" {
		t.Fatalf("zero width should render nothing")
	}
}

func TestRenderAlert(t *testing.T) {
	ev := alert.Evaluation{
		State:        alert.LowBalance,
		ShouldNotify: true,
		Balance:      core.MustMoney("80"),
		Threshold:    core.MustMoney("100"),
		Banner:       "Warning: Your balance is below $100.00!",
		Notification: "Your balance has dropped to $80.00, which is below your $100.00 threshold.",
	}
	out := RenderAlert(ev)
	if !strings.Contains(out, ev.Banner) || !strings.Contains(out, ev.Notification) {
		t.Fatalf("alert output = %q", out)
	}

	ev.ShouldNotify = false
	if out := RenderAlert(ev); strings.Contains(out, "dropped") {
		t.Fatalf("suppressed notification rendered: %q", out)
	}

	normal := RenderAlert(alert.Evaluation{Balance: core.MustMoney("500"), Threshold: core.MustMoney("100")})
	if !strings.Contains(normal, "$500.00") {
		t.Fatalf("normal output = %q", normal)
	}
}

func TestRenderSummary(t *testing.T) {
	doc := core.NewLedger()
	doc.Income = []core.IncomeRecord{{ID: "i1", Name: "Paycheck", Amount: core.MustMoney("1000")}}
	doc.Expenses = []core.ExpenseRecord{{ID: "e1", Name: "Rent", Amount: core.MustMoney("400"), Category: "Housing", Date: core.NewDate(2025, 6, 1)}}
	doc.Goals = []core.Goal{{ID: "g1", Name: "Vacation", Target: core.MustMoney("200"), Current: core.MustMoney("50")}}

	out := RenderSummary(core.Summarize(doc, 5))
	for _, want := range []string{"Budget Summary", "$600.00", "Housing", "100.0%", "Vacation", "25.0%", "Rent", "2025-06-01"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
