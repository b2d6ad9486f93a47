package domain

import (
	"time"
)

// TransactionType distinguishes spending from income.
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// Transaction is a single user-recorded money movement.
// Amount is always positive; Type carries the direction.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Category    Category        `json:"category"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// IsExpense reports whether the transaction counts toward spending.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// TransactionFilter narrows a transaction query. Zero values mean "no filter".
// Start is inclusive and End is exclusive.
type TransactionFilter struct {
	Start    time.Time
	End      time.Time
	Category Category
	Type     TransactionType
	Limit    int
}

// Matches reports whether tx passes every set field of the filter.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if !f.Start.IsZero() && tx.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !tx.Date.Before(f.End) {
		return false
	}
	if f.Category != "" && NormalizeCategory(string(tx.Category)) != f.Category {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	return true
}
