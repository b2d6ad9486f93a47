package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/orchestrator"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct        int
		wantFilled int
	}{
		{pct: 0, wantFilled: 0},
		{pct: 50, wantFilled: 10},
		{pct: 99, wantFilled: 19},
		{pct: 100, wantFilled: 20},
		{pct: 250, wantFilled: 20},
		{pct: -5, wantFilled: 0},
	}

	for _, tt := range tests {
		bar := progressBar(tt.pct, 20)
		if got := strings.Count(bar, "█"); got != tt.wantFilled {
			t.Errorf("progressBar(%d) filled = %d, want %d", tt.pct, got, tt.wantFilled)
		}
		if got := len([]rune(bar)); got != 20 {
			t.Errorf("progressBar(%d) width = %d, want 20", tt.pct, got)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{amount: 12.5, currency: "USD", want: "$12.50"},
		{amount: -3, currency: "USD", want: "-$3.00"},
		{amount: 0, currency: "", want: "$0.00"},
	}

	for _, tt := range tests {
		if got := formatMoney(tt.amount, tt.currency); got != tt.want {
			t.Errorf("formatMoney(%v, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	w, err := monthWindow("", now)
	if err != nil {
		t.Fatalf("monthWindow() error = %v", err)
	}
	if !w.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("current month start = %v", w.Start)
	}

	w, err = monthWindow("2023-12", now)
	if err != nil {
		t.Fatalf("monthWindow() error = %v", err)
	}
	if !w.End.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("December end = %v, want 2024-01-01", w.End)
	}

	if _, err := monthWindow("March", now); err == nil {
		t.Error("expected error for malformed month")
	}
}

func TestRenderProgress(t *testing.T) {
	p := budget.Progress{
		Start: "2024-03-01",
		End:   "2024-04-01",
		Categories: []budget.CategoryProgress{
			{Category: domain.Category("Food"), Spent: 450, Limit: 500, Remaining: 50, Percentage: 90, StatusMessage: "Approaching limit"},
		},
		Totals:     budget.Totals{Income: 3000, Expense: 450, Net: 2550},
		TotalLimit: 500,
	}

	out := renderProgress(p, "USD")
	for _, want := range []string{"2024-03-01", "Food", "90%", "$450.00", "$500.00", "Approaching limit", "$2550.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderProgress() missing %q in:\n%s", want, out)
		}
	}

	empty := renderProgress(budget.Progress{Start: "2024-03-01", End: "2024-04-01"}, "USD")
	if !strings.Contains(empty, "No budget set.") {
		t.Errorf("renderProgress() without budget missing notice:\n%s", empty)
	}
}

func TestRenderReport(t *testing.T) {
	start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	r := orchestrator.Report{
		Job:        orchestrator.JobDaily,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Results: []orchestrator.Result{
			{UserID: "u1", Outcome: orchestrator.OutcomeOK, Notified: true, Alerts: 2},
			{UserID: "u2", Outcome: orchestrator.OutcomeSkipped, Reason: orchestrator.ReasonNoBudget},
			{UserID: "u3", Outcome: orchestrator.OutcomeFailed, Error: "store unavailable"},
		},
	}

	out := renderReport(r)
	for _, want := range []string{"DAILY_BUDGET_CHECK", "u2: no budget", "u3: store unavailable", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderReport() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "u1:") {
		t.Errorf("renderReport() should not list successful users:\n%s", out)
	}

	aborted := renderReport(orchestrator.Report{Job: orchestrator.JobWeekly, Err: errors.New("list users: boom")})
	if !strings.Contains(aborted, "Run aborted: list users: boom") {
		t.Errorf("renderReport() aborted run:\n%s", aborted)
	}
}
