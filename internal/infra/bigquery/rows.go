package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

type UserRow struct {
	UserID string `bigquery:"user_id"` // REQUIRED

	Email         bigquery.NullString  `bigquery:"email"`          // NULLABLE
	DisplayName   bigquery.NullString  `bigquery:"display_name"`   // NULLABLE
	MonthlyIncome bigquery.NullFloat64 `bigquery:"monthly_income"` // NULLABLE
	Currency      string               `bigquery:"currency"`       // REQUIRED
	FCMToken      bigquery.NullString  `bigquery:"fcm_token"`      // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

type BudgetRow struct {
	UserID string `bigquery:"user_id"` // REQUIRED

	// Categories holds the category -> limit map as a JSON object.
	Categories bigquery.NullJSON `bigquery:"categories"` // REQUIRED (JSON)

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
	UpdatedTS time.Time `bigquery:"updated_ts"` // REQUIRED
}

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TransactionTS   time.Time  `bigquery:"transaction_ts"`   // REQUIRED
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED, partition column

	Amount       float64             `bigquery:"amount"`        // REQUIRED
	Direction    string              `bigquery:"direction"`     // REQUIRED: expense | income
	Description  string              `bigquery:"description"`   // REQUIRED
	CategoryName bigquery.NullString `bigquery:"category_name"` // NULLABLE

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

type InsightRow struct {
	InsightID   string `bigquery:"insight_id"`   // REQUIRED
	UserID      string `bigquery:"user_id"`      // REQUIRED
	InsightType string `bigquery:"insight_type"` // REQUIRED: weekly | monthly

	Summary          string  `bigquery:"summary"`           // REQUIRED
	TotalSpent       float64 `bigquery:"total_spent"`       // REQUIRED
	TransactionCount int64   `bigquery:"transaction_count"` // REQUIRED

	TopCategories  []string            `bigquery:"top_categories"` // REPEATED STRING
	Concerns       []string            `bigquery:"concerns"`       // REPEATED STRING
	Recommendation bigquery.NullString `bigquery:"recommendation"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

type ModelOutputRow struct {
	OutputID string `bigquery:"output_id"` // REQUIRED
	Flow     string `bigquery:"flow"`      // REQUIRED

	UserID    bigquery.NullString `bigquery:"user_id"`    // NULLABLE
	ModelName string              `bigquery:"model_name"` // REQUIRED

	Prompt  bigquery.NullString `bigquery:"prompt"`   // NULLABLE
	RawText string              `bigquery:"raw_text"` // REQUIRED
	Parsed  bool                `bigquery:"parsed"`   // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
