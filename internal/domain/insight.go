package domain

import (
	"time"
)

// InsightType tags how an insight was produced.
type InsightType string

const (
	InsightTypeWeekly  InsightType = "weekly"
	InsightTypeMonthly InsightType = "monthly"
)

// Insight is an append-only natural-language summary of a user's spending.
type Insight struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	Type             InsightType `json:"type"`
	Summary          string      `json:"summary"`
	TotalSpent       float64     `json:"total_spent"`
	TransactionCount int         `json:"transaction_count"`
	TopCategories    []Category  `json:"top_categories"`
	Concerns         []string    `json:"concerns"`
	Recommendation   string      `json:"recommendation,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}
