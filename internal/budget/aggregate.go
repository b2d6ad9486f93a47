package budget

import (
	"github.com/dvloznov/budget-insights/internal/domain"
)

// CategorySpending maps a category to the summed expense amount in a window.
type CategorySpending map[domain.Category]float64

// Total sums every category.
func (s CategorySpending) Total() float64 {
	var total float64
	for _, c := range s.categories() {
		total += s[c]
	}
	return total
}

func (s CategorySpending) categories() []domain.Category {
	cats := make([]domain.Category, 0, len(s))
	for c := range s {
		cats = append(cats, c)
	}
	domain.SortCategories(cats)
	return cats
}

// Aggregate sums expense amounts per category for transactions inside w.
// Income is ignored and unknown categories are counted as Other.
// The input slice is not modified.
func Aggregate(txs []domain.Transaction, w Window) CategorySpending {
	spending := make(CategorySpending)
	for _, tx := range txs {
		if !tx.IsExpense() || !w.Contains(tx.Date) {
			continue
		}
		spending[domain.NormalizeCategory(string(tx.Category))] += tx.Amount
	}
	return spending
}

// AggregateCategory sums expense amounts for a single category inside w.
func AggregateCategory(txs []domain.Transaction, w Window, category domain.Category) float64 {
	var total float64
	for _, tx := range txs {
		if !tx.IsExpense() || !w.Contains(tx.Date) {
			continue
		}
		if domain.NormalizeCategory(string(tx.Category)) == category {
			total += tx.Amount
		}
	}
	return total
}

// Totals is the income/expense split of a window.
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// ComputeTotals splits the window's transactions into income and expense sums.
func ComputeTotals(txs []domain.Transaction, w Window) Totals {
	var t Totals
	for _, tx := range txs {
		if !w.Contains(tx.Date) {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeExpense:
			t.Expense += tx.Amount
		case domain.TransactionTypeIncome:
			t.Income += tx.Amount
		}
	}
	t.Net = t.Income - t.Expense
	return t
}

// AggregateAll sums expense amounts per category with no date bound. Callers
// pass transactions already scoped to the period they care about.
func AggregateAll(txs []domain.Transaction) CategorySpending {
	spending := make(CategorySpending)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		spending[domain.NormalizeCategory(string(tx.Category))] += tx.Amount
	}
	return spending
}
