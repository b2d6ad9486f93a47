package domain

import (
	"time"
)

// Budget holds a user's current per-category spending limits.
// A missing or non-positive limit means the category is untracked.
type Budget struct {
	UserID     string               `json:"user_id"`
	Categories map[Category]float64 `json:"categories"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Limit returns the limit for c and whether it is tracked.
func (b *Budget) Limit(c Category) (float64, bool) {
	if b == nil {
		return 0, false
	}
	l, ok := b.Categories[c]
	if !ok || l <= 0 {
		return 0, false
	}
	return l, true
}

// OrderedCategories returns the budget's category keys in a stable order:
// enumerated set order first, then any other keys by name.
func (b *Budget) OrderedCategories() []Category {
	if b == nil {
		return nil
	}
	cats := make([]Category, 0, len(b.Categories))
	for c := range b.Categories {
		cats = append(cats, c)
	}
	SortCategories(cats)
	return cats
}

// Total sums every limit in the budget.
func (b *Budget) Total() float64 {
	var total float64
	for _, c := range b.OrderedCategories() {
		total += b.Categories[c]
	}
	return total
}

// Merge overlays patch onto b field by field and returns the result.
// Neither input is modified.
func (b *Budget) Merge(patch map[Category]float64, now time.Time) *Budget {
	merged := &Budget{
		Categories: make(map[Category]float64, len(patch)),
		UpdatedAt:  now,
		CreatedAt:  now,
	}
	if b != nil {
		merged.UserID = b.UserID
		merged.CreatedAt = b.CreatedAt
		for c, l := range b.Categories {
			merged.Categories[c] = l
		}
	}
	for c, l := range patch {
		merged.Categories[c] = l
	}
	return merged
}
