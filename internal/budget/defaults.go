package budget

import (
	"math"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// defaultShares splits monthly income across categories (needs, wants, savings).
var defaultShares = map[domain.Category]float64{
	domain.CategoryHousing:        0.25,
	domain.CategoryFood:           0.10,
	domain.CategoryTransportation: 0.075,
	domain.CategoryUtilities:      0.075,
	domain.CategoryEntertainment:  0.10,
	domain.CategoryShopping:       0.10,
	domain.CategoryHealthcare:     0.05,
	domain.CategorySavings:        0.20,
	domain.CategoryOther:          0.05,
}

// DefaultAllocation returns a starter budget derived from monthly income,
// each limit rounded to a whole amount.
func DefaultAllocation(income float64) map[domain.Category]float64 {
	limits := make(map[domain.Category]float64, len(defaultShares))
	for c, share := range defaultShares {
		limits[c] = math.Floor(income*share + 0.5)
	}
	return limits
}
