package domain

import (
	"sort"
	"strings"
)

// Category is one label from the fixed budgeting category set.
type Category string

const (
	CategoryHousing        Category = "Housing"
	CategoryFood           Category = "Food & Groceries"
	CategoryTransportation Category = "Transportation"
	CategoryUtilities      Category = "Utilities"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryHealthcare     Category = "Healthcare"
	CategorySavings        Category = "Savings"
	CategoryOther          Category = "Other"
)

// Categories lists the enumerated category set in display order.
var Categories = []Category{
	CategoryHousing,
	CategoryFood,
	CategoryTransportation,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryShopping,
	CategoryHealthcare,
	CategorySavings,
	CategoryOther,
}

var categorySet = func() map[Category]int {
	m := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		m[c] = i
	}
	return m
}()

// IsValid reports whether c belongs to the enumerated category set.
func (c Category) IsValid() bool {
	_, ok := categorySet[c]
	return ok
}

// NormalizeCategory coerces a raw category label into the enumerated set.
// Blank or unrecognized labels become "Other".
func NormalizeCategory(raw string) Category {
	c := Category(strings.TrimSpace(raw))
	if c.IsValid() {
		return c
	}
	return CategoryOther
}

// SortCategories orders categories by their position in Categories.
// Labels outside the set go last, sorted by name.
func SortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		pi, iok := categorySet[cats[i]]
		pj, jok := categorySet[cats[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return cats[i] < cats[j]
		}
	})
}
