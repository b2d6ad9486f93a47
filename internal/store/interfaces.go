package store

import (
	"context"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// UserRepository reads and writes user profiles.
type UserRepository interface {
	// ListUserIDs returns every known user id, sorted.
	ListUserIDs(ctx context.Context) ([]string, error)

	// GetUser returns the profile or an error wrapping domain.ErrNotFound.
	GetUser(ctx context.Context, userID string) (*domain.UserProfile, error)

	// SaveUser creates or replaces a profile.
	SaveUser(ctx context.Context, user *domain.UserProfile) error
}

// BudgetRepository holds the single current budget per user.
type BudgetRepository interface {
	// GetBudget returns the current budget or an error wrapping domain.ErrNotFound.
	GetBudget(ctx context.Context, userID string) (*domain.Budget, error)

	// SaveBudget replaces the user's current budget.
	SaveBudget(ctx context.Context, b *domain.Budget) error
}

// TransactionRepository stores a user's transactions.
type TransactionRepository interface {
	AddTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// QueryTransactions returns the user's transactions matching filter,
	// newest first.
	QueryTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// InsightRepository is the append-only insight log.
type InsightRepository interface {
	AddInsight(ctx context.Context, insight *domain.Insight) error

	// ListInsights returns up to limit insights, newest first. limit <= 0 means all.
	ListInsights(ctx context.Context, userID string, limit int) ([]domain.Insight, error)
}

// Store is the full document-store capability set.
type Store interface {
	UserRepository
	BudgetRepository
	TransactionRepository
	InsightRepository

	Close() error
}
