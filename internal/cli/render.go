package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budget/internal/alert"
	"budget/internal/core"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
	goodStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	badStyle    = lipgloss.NewStyle().Foreground(ColorRed)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorRed).
			Padding(0, 1)
)

// Table is a bordered text table. The first column is left aligned, the
// others right aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

func rule(left, mid, right string, widths []int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
	return b.String()
}

// RenderTable renders t, or a muted placeholder when it has no rows.
func RenderTable(t Table) string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	if len(t.Rows) == 0 {
		b.WriteString("  " + mutedStyle.Render("(none)") + "\n")
		return b.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	b.WriteString(rule("╭", "┬", "╮", widths))
	b.WriteString(dimStyle.Render("│"))
	for i, h := range t.Headers {
		b.WriteString(headerStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
		b.WriteString(dimStyle.Render("│"))
	}
	b.WriteString("\n")
	b.WriteString(rule("├", "┼", "┤", widths))

	for _, row := range t.Rows {
		b.WriteString(dimStyle.Render("│"))
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", w-lipgloss.Width(cell))
			if i == 0 {
				cell = " " + cell + pad + " "
			} else {
				cell = " " + pad + cell + " "
			}
			b.WriteString(valueStyle.Render(cell))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}
	b.WriteString(rule("╰", "┴", "╯", widths))
	return b.String()
}

// RenderProgressBar draws percent (0..100, clamped) as a block bar.
func RenderProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	p := min(max(percent, 0), 100)
	filled := int(p / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %5.1f%%", mutedStyle.Render(bar), percent)
}

// RenderAlert shows the banner while the balance is low, plus the one-time
// notification when it is due.
func RenderAlert(ev alert.Evaluation) string {
	if ev.State != alert.LowBalance {
		return goodStyle.Render(fmt.Sprintf("Balance %s is at or above your %s threshold.",
			ev.Balance.Dollars(), ev.Threshold.Dollars()))
	}
	out := bannerStyle.Render(ev.Banner)
	if ev.ShouldNotify {
		out += "\n" + badStyle.Render(ev.Notification)
	}
	return out
}

func moneyCell(m core.Money) string {
	if m.Cents < 0 {
		return badStyle.Render(m.Dollars())
	}
	return m.Dollars()
}

// RenderSummary lays out totals, category shares, goals and recent expenses.
func RenderSummary(s core.Summary) string {
	var b strings.Builder
	b.WriteString(RenderTitle("Budget Summary"))
	b.WriteString("\n")

	b.WriteString(RenderTable(Table{
		Headers: []string{"Totals", "Amount"},
		Rows: [][]string{
			{"Income", s.Totals.TotalIncome.Dollars()},
			{"Expenses", s.Totals.TotalExpenses.Dollars()},
			{"Balance", moneyCell(s.Totals.CurrentBalance)},
			{"Alert threshold", s.Threshold.Dollars()},
		},
	}))

	cats := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		name := c.Category
		if name == "" {
			name = "(uncategorized)"
		}
		cats = append(cats, []string{name, c.Amount.Dollars(), fmt.Sprintf("%.1f%%", c.Percent)})
	}
	b.WriteString(RenderTable(Table{Title: "By category", Headers: []string{"Category", "Amount", "Share"}, Rows: cats}))

	b.WriteString(RenderGoals(s.Goals))
	b.WriteString(RenderExpenses("Recent expenses", s.Recent))
	return b.String()
}

// RenderGoals lists goals with a progress bar each.
func RenderGoals(goals []core.GoalStatus) string {
	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		rows = append(rows, []string{
			g.Goal.Name,
			g.Goal.Current.Dollars() + " / " + g.Goal.Target.Dollars(),
			RenderProgressBar(g.Progress.Percent, 20),
			g.Goal.ID,
		})
	}
	return RenderTable(Table{Title: "Goals", Headers: []string{"Goal", "Saved", "Progress", "ID"}, Rows: rows})
}

// RenderExpenses lists expenses in the order given.
func RenderExpenses(title string, list []core.ExpenseRecord) string {
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		rows = append(rows, []string{e.Name, e.Amount.Dollars(), e.Category, e.Date.String(), e.ID})
	}
	return RenderTable(Table{Title: title, Headers: []string{"Name", "Amount", "Category", "Date", "ID"}, Rows: rows})
}
