package budget

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/dvloznov/budget-insights/internal/domain"
)

func TestBuildAlerts(t *testing.T) {
	spending := CategorySpending{
		domain.CategoryFood:          520,
		domain.CategoryShopping:      170,
		domain.CategoryHousing:       100,
		domain.CategoryEntertainment: 900,
	}
	b := &domain.Budget{Categories: map[domain.Category]float64{
		domain.CategoryShopping: 200,
		domain.CategoryFood:     500,
		domain.CategoryHousing:  1500,
		domain.CategorySavings:  0,
	}}

	got := BuildAlerts(spending, b)

	want := []Alert{
		{Category: domain.CategoryFood, Spent: 520, Budget: 500, Percentage: 104, Severity: SeverityCritical},
		{Category: domain.CategoryShopping, Spent: 170, Budget: 200, Percentage: 85, Severity: SeverityWarning},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildAlerts() = %+v, want %+v", got, want)
	}

	again := BuildAlerts(spending, b)
	if !reflect.DeepEqual(got, again) {
		t.Error("BuildAlerts() is not idempotent")
	}
}

func TestBuildAlerts_NoBudget(t *testing.T) {
	spending := CategorySpending{domain.CategoryFood: 10000}
	if got := BuildAlerts(spending, nil); len(got) != 0 {
		t.Errorf("expected no alerts without a budget, got %v", got)
	}
	if got := BuildAlerts(spending, &domain.Budget{}); len(got) != 0 {
		t.Errorf("expected no alerts for an empty budget, got %v", got)
	}
}

func TestBudgetNotification(t *testing.T) {
	food := Alert{Category: domain.CategoryFood, Spent: 520, Budget: 500, Percentage: 104, Severity: SeverityCritical}
	shopping := Alert{Category: domain.CategoryShopping, Spent: 170, Budget: 200, Percentage: 85, Severity: SeverityWarning}
	housing := Alert{Category: domain.CategoryHousing, Spent: 1300, Budget: 1500, Percentage: 87, Severity: SeverityWarning}

	tests := []struct {
		name      string
		alerts    []Alert
		wantOK    bool
		wantTitle string
		wantBody  string
	}{
		{"empty", nil, false, "", ""},
		{"critical wins", []Alert{food, shopping}, true, "🚨 Critical Budget Alert", "You've exceeded your budget in 1 category!"},
		{"two critical", []Alert{food, {Category: domain.CategoryOther, Percentage: 150, Severity: SeverityCritical}}, true, "🚨 Critical Budget Alert", "You've exceeded your budget in 2 categories!"},
		{"single warning", []Alert{shopping}, true, "💰 Budget Alert", "You're approaching your budget limit in 1 category."},
		{"two warnings", []Alert{shopping, housing}, true, "💰 Budget Alert", "You're approaching your budget limit in 2 categories."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok, err := BudgetNotification(tt.alerts)
			if err != nil {
				t.Fatalf("BudgetNotification() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if n.Title != tt.wantTitle || n.Body != tt.wantBody {
				t.Errorf("got %q / %q", n.Title, n.Body)
			}
			if n.Data["type"] != NotificationBudgetAlert {
				t.Errorf("data type = %q", n.Data["type"])
			}
			var decoded []Alert
			if err := json.Unmarshal([]byte(n.Data["alerts"]), &decoded); err != nil {
				t.Fatalf("alerts payload is not JSON: %v", err)
			}
			if len(decoded) != len(tt.alerts) {
				t.Errorf("payload carries %d alerts, want %d", len(decoded), len(tt.alerts))
			}
		})
	}
}

func TestCategoryNotification(t *testing.T) {
	warning := Alert{Category: domain.CategoryFood, Spent: 450, Budget: 500, Percentage: 90, Severity: SeverityWarning}
	n := CategoryNotification(warning, "GBP")

	if n.Title != "⚠️ Budget Alert: Food & Groceries" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Body != "You've used 90% of your Food & Groceries budget (£450.00 of £500.00)" {
		t.Errorf("Body = %q", n.Body)
	}
	if n.Data["type"] != NotificationCategoryAlert || n.Data["category"] != "Food & Groceries" {
		t.Errorf("Data = %v", n.Data)
	}

	critical := warning
	critical.Severity = SeverityCritical
	if got := CategoryNotification(critical, "").Title; got != "🚨 Budget Exceeded: Food & Groceries" {
		t.Errorf("critical Title = %q", got)
	}
}

func TestBuildProgress(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	w := CurrentMonth(now)
	txs := []domain.Transaction{
		tx(domain.CategoryFood, domain.TransactionTypeExpense, 450, now),
		tx(domain.CategoryOther, domain.TransactionTypeIncome, 2000, now),
	}
	b := &domain.Budget{Categories: map[domain.Category]float64{
		domain.CategoryFood:    500,
		domain.CategoryHousing: 1000,
	}}

	p := BuildProgress(txs, b, w)

	if len(p.Categories) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(p.Categories))
	}
	housing, food := p.Categories[0], p.Categories[1]
	if housing.Category != domain.CategoryHousing || housing.StatusMessage != "Well under budget" {
		t.Errorf("housing row = %+v", housing)
	}
	if food.Percentage != 90 || food.Remaining != 50 || food.StatusMessage != "Approaching limit" {
		t.Errorf("food row = %+v", food)
	}
	if p.Totals.Net != 1550 || p.TotalLimit != 1500 {
		t.Errorf("totals = %+v, limit = %v", p.Totals, p.TotalLimit)
	}
	if p.Start != "2026-03-01" || p.End != "2026-04-01" {
		t.Errorf("window = %s - %s", p.Start, p.End)
	}
}

func TestDefaultAllocation(t *testing.T) {
	got := DefaultAllocation(5000)
	if got[domain.CategoryHousing] != 1250 || got[domain.CategoryTransportation] != 375 || got[domain.CategorySavings] != 1000 {
		t.Errorf("DefaultAllocation(5000) = %v", got)
	}

	var total float64
	for _, l := range got {
		total += l
	}
	if total != 5000 {
		t.Errorf("allocation total = %v, want 5000", total)
	}
	if len(got) != len(domain.Categories) {
		t.Errorf("allocation covers %d categories, want %d", len(got), len(domain.Categories))
	}
}
