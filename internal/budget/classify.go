package budget

import (
	"math"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// Alert thresholds in whole percent of the category limit.
const (
	WarningThreshold  = 80
	CriticalThreshold = 100
)

// Severity is the urgency tier of a budget alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert describes one category over a threshold.
type Alert struct {
	Category   domain.Category `json:"category"`
	Spent      float64         `json:"spent"`
	Budget     float64         `json:"budget"`
	Percentage int             `json:"percentage"`
	Severity   Severity        `json:"severity"`
}

// Percentage returns spent/limit as a whole percent, rounded half up.
// A non-positive limit yields 0. Ratios too large for an int32 are capped
// at math.MaxInt32.
func Percentage(spent, limit float64) int {
	if limit <= 0 {
		return 0
	}
	pct := math.Floor(spent/limit*100 + 0.5)
	if pct >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(pct)
}

// Classify maps a spent/limit pair to an alert. ok is false when the
// limit is untracked or the percentage is below the warning threshold.
func Classify(category domain.Category, spent, limit float64) (Alert, bool) {
	if limit <= 0 {
		return Alert{}, false
	}
	pct := Percentage(spent, limit)

	var sev Severity
	switch {
	case pct >= CriticalThreshold:
		sev = SeverityCritical
	case pct >= WarningThreshold:
		sev = SeverityWarning
	default:
		return Alert{}, false
	}

	return Alert{
		Category:   category,
		Spent:      spent,
		Budget:     limit,
		Percentage: pct,
		Severity:   sev,
	}, true
}
