package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/orchestrator"
)

var (
	colorBorder = lipgloss.Color("#282726")
	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(colorOrange)
	errorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

const barWidth = 20

func renderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// styleFor colors a value by how much of its budget has been used.
func styleFor(pct int) lipgloss.Style {
	switch {
	case pct >= budget.CriticalThreshold:
		return errorStyle
	case pct >= budget.WarningThreshold:
		return warnStyle
	default:
		return okStyle
	}
}

// progressBar draws pct as a fixed-width bar, clamped to full.
func progressBar(pct, width int) string {
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatMoney(amount float64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%s%.2f", sign, domain.CurrencySymbol(currency), amount)
}

// renderProgress renders one row per budgeted category followed by the
// window totals.
func renderProgress(p budget.Progress, currency string) string {
	var b strings.Builder

	b.WriteString(renderTitle(fmt.Sprintf("BUDGET %s .. %s", p.Start, p.End)))
	b.WriteString("\n\n")

	if len(p.Categories) == 0 {
		b.WriteString(mutedStyle.Render("  No budget set."))
		b.WriteString("\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-16s %-*s %5s %12s %12s", "Category", barWidth, "", "Used", "Spent", "Limit")))
		b.WriteString("\n")
		for _, c := range p.Categories {
			style := styleFor(c.Percentage)
			fmt.Fprintf(&b, "  %-16s %s %5s %12s %12s  %s\n",
				c.Category,
				style.Render(progressBar(c.Percentage, barWidth)),
				style.Render(fmt.Sprintf("%d%%", c.Percentage)),
				formatMoney(c.Spent, currency),
				formatMoney(c.Limit, currency),
				mutedStyle.Render(c.StatusMessage),
			)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %-16s %s\n", "Total budget", formatMoney(p.TotalLimit, currency))
	}

	fmt.Fprintf(&b, "  %-16s %s\n", "Income", formatMoney(p.Totals.Income, currency))
	fmt.Fprintf(&b, "  %-16s %s\n", "Expenses", formatMoney(p.Totals.Expense, currency))
	fmt.Fprintf(&b, "  %-16s %s\n", "Net", formatMoney(p.Totals.Net, currency))

	return b.String()
}

// renderReport summarizes a batch run and lists users that did not succeed.
func renderReport(r orchestrator.Report) string {
	var b strings.Builder

	b.WriteString(renderTitle(strings.ToUpper(r.Job)))
	b.WriteString("\n\n")

	if r.Err != nil {
		b.WriteString(errorStyle.Render("  Run aborted: " + r.Err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	c := r.Counts()
	fmt.Fprintf(&b, "  %-10s %d\n", "Users", len(r.Results))
	fmt.Fprintf(&b, "  %-10s %s\n", "OK", okStyle.Render(fmt.Sprint(c.OK)))
	fmt.Fprintf(&b, "  %-10s %s\n", "Skipped", mutedStyle.Render(fmt.Sprint(c.Skipped)))
	fmt.Fprintf(&b, "  %-10s %s\n", "Failed", errorStyle.Render(fmt.Sprint(c.Failed)))
	fmt.Fprintf(&b, "  %-10s %d\n", "Notified", c.Notified)
	fmt.Fprintf(&b, "  %-10s %s\n", "Duration", r.Duration().Round(time.Millisecond))

	for _, res := range r.Results {
		if res.Outcome == orchestrator.OutcomeOK {
			continue
		}
		b.WriteString("\n")
		b.WriteString(renderResult(res))
	}

	return b.String()
}

func renderResult(res orchestrator.Result) string {
	switch res.Outcome {
	case orchestrator.OutcomeFailed:
		return fmt.Sprintf("  %s %s: %s\n", errorStyle.Render("✗"), res.UserID, res.Error)
	case orchestrator.OutcomeSkipped:
		return fmt.Sprintf("  %s %s: %s\n", mutedStyle.Render("-"), res.UserID, res.Reason)
	default:
		line := fmt.Sprintf("  %s %s: %d alert(s)", okStyle.Render("✓"), res.UserID, res.Alerts)
		if res.Notified {
			line += ", notified"
		}
		if res.InsightID != "" {
			line += ", insight " + res.InsightID
		}
		return line + "\n"
	}
}

// renderList prints a headed bullet list, or nothing when items is empty.
func renderList(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("  " + title))
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(&b, "    • %s\n", item)
	}
	return b.String()
}
