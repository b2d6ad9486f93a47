package budget

import (
	"encoding/json"
	"fmt"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// Notification data types.
const (
	NotificationBudgetAlert    = "budget_alert"
	NotificationCategoryAlert  = "category_alert"
	NotificationWeeklyInsights = "weekly_insights"
	NotificationMonthlySummary = "monthly_summary"
)

// Notification is the user-facing copy plus data payload of one push message.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// BuildAlerts classifies every category present in the budget and returns
// the ones over a threshold, in the budget's category order. Categories with
// spending but no budget entry never alert.
func BuildAlerts(spending CategorySpending, b *domain.Budget) []Alert {
	var alerts []Alert
	for _, c := range b.OrderedCategories() {
		if a, ok := Classify(c, spending[c], b.Categories[c]); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// CountBySeverity counts alerts of the given severity.
func CountBySeverity(alerts []Alert, sev Severity) int {
	n := 0
	for _, a := range alerts {
		if a.Severity == sev {
			n++
		}
	}
	return n
}

// BudgetNotification builds the combined alert notification for a daily run.
// ok is false when there is nothing to send.
func BudgetNotification(alerts []Alert) (Notification, bool, error) {
	if len(alerts) == 0 {
		return Notification{}, false, nil
	}

	payload, err := json.Marshal(alerts)
	if err != nil {
		return Notification{}, false, fmt.Errorf("BudgetNotification: marshal alerts: %w", err)
	}

	n := Notification{
		Data: map[string]string{
			"type":   NotificationBudgetAlert,
			"alerts": string(payload),
		},
	}

	if critical := CountBySeverity(alerts, SeverityCritical); critical > 0 {
		n.Title = "🚨 Critical Budget Alert"
		n.Body = fmt.Sprintf("You've exceeded your budget in %s!", pluralCategories(critical))
	} else {
		n.Title = "💰 Budget Alert"
		n.Body = fmt.Sprintf("You're approaching your budget limit in %s.", pluralCategories(len(alerts)))
	}

	return n, true, nil
}

// CategoryNotification builds the single-category notification sent after a
// new transaction pushes a category over a threshold.
func CategoryNotification(a Alert, currency string) Notification {
	sym := domain.CurrencySymbol(currency)

	title := fmt.Sprintf("⚠️ Budget Alert: %s", a.Category)
	if a.Severity == SeverityCritical {
		title = fmt.Sprintf("🚨 Budget Exceeded: %s", a.Category)
	}

	return Notification{
		Title: title,
		Body: fmt.Sprintf("You've used %d%% of your %s budget (%s%.2f of %s%.2f)",
			a.Percentage, a.Category, sym, a.Spent, sym, a.Budget),
		Data: map[string]string{
			"type":     NotificationCategoryAlert,
			"category": string(a.Category),
		},
	}
}

func pluralCategories(n int) string {
	if n == 1 {
		return "1 category"
	}
	return fmt.Sprintf("%d categories", n)
}
