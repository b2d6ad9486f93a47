package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
)

func currencyOf(p *domain.UserProfile) string {
	if p == nil || p.Currency == "" {
		return domain.DefaultCurrency
	}
	return p.Currency
}

func incomeOf(p *domain.UserProfile) float64 {
	if p == nil {
		return 0
	}
	return p.MonthlyIncome
}

// formatSpending renders per-category totals as a bulleted list.
func formatSpending(spending budget.CategorySpending, sym string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Spent: %s%.2f\n\nBy Category:\n", sym, spending.Total())
	cats := make([]domain.Category, 0, len(spending))
	for c := range spending {
		cats = append(cats, c)
	}
	domain.SortCategories(cats)
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %s%.2f\n", c, sym, spending[c])
	}
	return b.String()
}

func formatLimits(limits map[domain.Category]float64) string {
	if len(limits) == 0 {
		return "{}"
	}
	out, err := json.MarshalIndent(limits, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func budgetLimits(b *domain.Budget) map[domain.Category]float64 {
	if b == nil {
		return nil
	}
	return b.Categories
}

func buildWeeklyPrompt(s Summary, profile *domain.UserProfile) string {
	sym := domain.CurrencySymbol(currencyOf(profile))

	var b strings.Builder
	b.WriteString("Generate a brief weekly spending summary (2-3 sentences).\n\n")
	fmt.Fprintf(&b, "Total spent this week: %s%.2f\n", sym, s.TotalSpent)
	fmt.Fprintf(&b, "Transactions: %d\n\n", s.TransactionCount)
	b.WriteString("Spending by category:\n")
	b.WriteString(formatLimits(s.ByCategory))
	b.WriteString("\n\nProvide an encouraging, actionable insight. Keep it friendly and under 100 words.\n")
	return b.String()
}

func buildAnalysisPrompt(s Summary, profile *domain.UserProfile) string {
	sym := domain.CurrencySymbol(currencyOf(profile))

	var b strings.Builder
	b.WriteString("You are a financial advisor analyzing a user's spending patterns.\n\n")
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Monthly Income: %s%.2f\n", sym, incomeOf(profile))
	fmt.Fprintf(&b, "- Currency: %s\n\n", currencyOf(profile))
	fmt.Fprintf(&b, "Transaction Summary (Last %d days):\n", budget.AnalysisLookbackDays)
	b.WriteString(formatSpending(s.ByCategory, sym))
	b.WriteString("\nPlease provide:\n")
	b.WriteString("1. A brief analysis of spending patterns (2-3 sentences)\n")
	b.WriteString("2. Top 3 spending categories\n")
	b.WriteString("3. Any concerning trends or overspending areas\n")
	b.WriteString("4. One actionable recommendation\n\n")
	b.WriteString("Keep your response concise, friendly, and actionable. Format as JSON:\n")
	b.WriteString(`{
  "analysis": "Brief analysis text",
  "topCategories": ["category1", "category2", "category3"],
  "concerns": ["concern1", "concern2"],
  "recommendation": "One key recommendation"
}` + "\n")
	return b.String()
}

func buildRecommendationPrompt(s Summary, profile *domain.UserProfile, current *domain.Budget) string {
	sym := domain.CurrencySymbol(currencyOf(profile))

	var b strings.Builder
	b.WriteString("You are a financial advisor creating a personalized budget plan.\n\n")
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Monthly Income: %s%.2f\n\n", sym, incomeOf(profile))
	if current != nil && len(current.Categories) > 0 {
		b.WriteString("Current Budget:\n")
		b.WriteString(formatLimits(current.Categories))
		b.WriteString("\n\n")
	} else {
		b.WriteString("No current budget set\n\n")
	}
	fmt.Fprintf(&b, "Recent Spending (Last %d days):\n", budget.AnalysisLookbackDays)
	b.WriteString(formatSpending(s.ByCategory, sym))
	b.WriteString("\nBased on the 50/30/20 rule (50% needs, 30% wants, 20% savings) and the user's actual spending patterns, ")
	b.WriteString("suggest realistic monthly budget limits for these categories:\n")
	for _, c := range domain.Categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nProvide your recommendations as JSON:\n{\n  \"categories\": {\n")
	for i, c := range domain.Categories {
		sep := ","
		if i == len(domain.Categories)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: amount%s\n", c, sep)
	}
	b.WriteString("  },\n  \"reasoning\": \"Brief explanation of your recommendations\"\n}\n")
	return b.String()
}

func buildOverspendingPrompt(spending budget.CategorySpending, b *domain.Budget, profile *domain.UserProfile) string {
	sym := domain.CurrencySymbol(currencyOf(profile))

	var sb strings.Builder
	sb.WriteString("You are monitoring a user's spending for potential overspending alerts.\n\n")
	fmt.Fprintf(&sb, "Monthly Income: %s%.2f\n\n", sym, incomeOf(profile))
	sb.WriteString("Budget Limits:\n")
	sb.WriteString(formatLimits(budgetLimits(b)))
	sb.WriteString("\n\nCurrent Spending (This Month):\n")
	sb.WriteString(formatLimits(spending))
	sb.WriteString("\n\nIdentify any categories where spending is approaching or exceeding budget limits. Provide alerts as JSON:\n")
	sb.WriteString(`{
  "alerts": [
    {
      "category": "category name",
      "spent": amount,
      "budget": amount,
      "percentage": percentage,
      "severity": "warning|critical",
      "message": "Friendly alert message"
    }
  ],
  "overallStatus": "on_track|warning|critical"
}` + "\n\n")
	fmt.Fprintf(&sb, "Mark as \"warning\" if %d-%d%% of budget used, \"critical\" if %d%%+ used.\n",
		budget.WarningThreshold, budget.CriticalThreshold-1, budget.CriticalThreshold)
	return sb.String()
}

func buildMonthlySummaryPrompt(s Summary, b *domain.Budget, profile *domain.UserProfile) string {
	sym := domain.CurrencySymbol(currencyOf(profile))

	var sb strings.Builder
	sb.WriteString("Create a friendly monthly spending summary for a user.\n\n")
	fmt.Fprintf(&sb, "Monthly Income: %s%.2f\n", sym, incomeOf(profile))
	fmt.Fprintf(&sb, "Total Spent: %s%.2f\n\n", sym, s.TotalSpent)
	sb.WriteString("Spending by Category:\n")
	sb.WriteString(formatLimits(s.ByCategory))
	sb.WriteString("\n\nBudget:\n")
	sb.WriteString(formatLimits(budgetLimits(b)))
	sb.WriteString("\n\nProvide a friendly, encouraging summary (2-3 paragraphs) that:\n")
	sb.WriteString("1. Highlights overall performance\n")
	sb.WriteString("2. Mentions top spending categories\n")
	sb.WriteString("3. Offers one piece of positive reinforcement or advice\n")
	sb.WriteString("4. Keeps tone supportive and non-judgmental\n\n")
	sb.WriteString("Keep it concise and actionable.\n")
	return sb.String()
}

func buildAdjustmentsPrompt(lifeChange string, b *domain.Budget, profile *domain.UserProfile) string {
	sym := domain.CurrencySymbol(currencyOf(profile))

	var sb strings.Builder
	fmt.Fprintf(&sb, "A user experienced a life change: %q\n\n", lifeChange)
	fmt.Fprintf(&sb, "Current Monthly Income: %s%.2f\n\n", sym, incomeOf(profile))
	sb.WriteString("Current Budget:\n")
	sb.WriteString(formatLimits(budgetLimits(b)))
	sb.WriteString("\n\nSuggest how to adjust their budget to accommodate this change. Provide response as JSON:\n")
	sb.WriteString(`{
  "adjustments": {
    "Category Name": {
      "oldAmount": current_amount,
      "newAmount": suggested_amount,
      "reason": "why this adjustment"
    }
  },
  "summary": "Brief explanation of overall adjustments"
}` + "\n")
	return sb.String()
}
