package budget

import (
	"github.com/dvloznov/budget-insights/internal/domain"
)

// CategoryProgress is one row of the budget progress view.
type CategoryProgress struct {
	Category      domain.Category `json:"category"`
	Spent         float64         `json:"spent"`
	Limit         float64         `json:"limit"`
	Remaining     float64         `json:"remaining"`
	Percentage    int             `json:"percentage"`
	StatusMessage string          `json:"status_message"`
}

// Progress is the per-category spending view for one window.
type Progress struct {
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Categories []CategoryProgress `json:"categories"`
	Totals     Totals             `json:"totals"`
	TotalLimit float64            `json:"total_limit"`
}

// StatusMessage describes how far into its budget a category is.
func StatusMessage(pct int) string {
	switch {
	case pct >= CriticalThreshold:
		return "Over budget!"
	case pct >= WarningThreshold:
		return "Approaching limit"
	case pct >= 50:
		return "On track"
	default:
		return "Well under budget"
	}
}

// BuildProgress computes the progress view of b over w. A nil budget yields
// an empty category list with totals still filled in.
func BuildProgress(txs []domain.Transaction, b *domain.Budget, w Window) Progress {
	spending := Aggregate(txs, w)
	p := Progress{
		Start:      w.Start.Format("2006-01-02"),
		End:        w.End.Format("2006-01-02"),
		Categories: []CategoryProgress{},
		Totals:     ComputeTotals(txs, w),
	}

	for _, c := range b.OrderedCategories() {
		limit := b.Categories[c]
		spent := spending[c]
		pct := Percentage(spent, limit)
		p.Categories = append(p.Categories, CategoryProgress{
			Category:      c,
			Spent:         spent,
			Limit:         limit,
			Remaining:     limit - spent,
			Percentage:    pct,
			StatusMessage: StatusMessage(pct),
		})
		p.TotalLimit += limit
	}

	return p
}
