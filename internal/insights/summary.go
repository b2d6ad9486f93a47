package insights

import (
	"sort"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
)

// TopCategoryCount is how many categories a summary ranks.
const TopCategoryCount = 3

// Summary is the aggregated view of a transaction set that prompts embed.
type Summary struct {
	TotalSpent       float64
	TransactionCount int
	ByCategory       budget.CategorySpending
	TopCategories    []domain.Category
}

// Summarize totals expenses per category and ranks the top categories.
// TransactionCount includes income transactions.
func Summarize(txs []domain.Transaction) Summary {
	byCategory := budget.AggregateAll(txs)
	return Summary{
		TotalSpent:       byCategory.Total(),
		TransactionCount: len(txs),
		ByCategory:       byCategory,
		TopCategories:    TopCategories(byCategory, TopCategoryCount),
	}
}

// TopCategories returns up to n categories by spend descending, ties broken
// by category name ascending.
func TopCategories(spending budget.CategorySpending, n int) []domain.Category {
	cats := make([]domain.Category, 0, len(spending))
	for c := range spending {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if spending[cats[i]] != spending[cats[j]] {
			return spending[cats[i]] > spending[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}
