package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/store"
)

// Store is an in-memory document store, safe for concurrent use.
// Everything is lost on restart.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.UserProfile
	budgets      map[string]domain.Budget
	transactions map[string]map[string]domain.Transaction
	insights     map[string][]domain.Insight
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.UserProfile),
		budgets:      make(map[string]domain.Budget),
		transactions: make(map[string]map[string]domain.Transaction),
		insights:     make(map[string][]domain.Insight),
	}
}

// ListUserIDs implements store.UserRepository.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetUser implements store.UserRepository.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("GetUser %s: %w", userID, domain.ErrNotFound)
	}
	return &u, nil
}

// SaveUser implements store.UserRepository.
func (s *Store) SaveUser(ctx context.Context, user *domain.UserProfile) error {
	if user.ID == "" {
		return fmt.Errorf("SaveUser: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = *user
	return nil
}

// GetBudget implements store.BudgetRepository.
func (s *Store) GetBudget(ctx context.Context, userID string) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[userID]
	if !ok {
		return nil, fmt.Errorf("GetBudget %s: %w", userID, domain.ErrNotFound)
	}
	return copyBudget(b), nil
}

// SaveBudget implements store.BudgetRepository.
func (s *Store) SaveBudget(ctx context.Context, b *domain.Budget) error {
	if b.UserID == "" {
		return fmt.Errorf("SaveBudget: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets[b.UserID] = *copyBudget(*b)
	return nil
}

func copyBudget(b domain.Budget) *domain.Budget {
	cats := make(map[domain.Category]float64, len(b.Categories))
	for c, l := range b.Categories {
		cats[c] = l
	}
	b.Categories = cats
	return &b
}

// AddTransaction implements store.TransactionRepository.
func (s *Store) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" || tx.UserID == "" {
		return fmt.Errorf("AddTransaction: transaction and user IDs are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userTxs, ok := s.transactions[tx.UserID]
	if !ok {
		userTxs = make(map[string]domain.Transaction)
		s.transactions[tx.UserID] = userTxs
	}
	userTxs[tx.ID] = *tx
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (s *Store) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[userID][transactionID]
	if !ok {
		return nil, fmt.Errorf("GetTransaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return &tx, nil
}

// UpdateTransaction implements store.TransactionRepository.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.UserID][tx.ID]; !ok {
		return fmt.Errorf("UpdateTransaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	s.transactions[tx.UserID][tx.ID] = *tx
	return nil
}

// DeleteTransaction implements store.TransactionRepository.
func (s *Store) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[userID][transactionID]; !ok {
		return fmt.Errorf("DeleteTransaction %s: %w", transactionID, domain.ErrNotFound)
	}
	delete(s.transactions[userID], transactionID)
	return nil
}

// QueryTransactions implements store.TransactionRepository.
func (s *Store) QueryTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Transaction
	for _, tx := range s.transactions[userID] {
		if filter.Matches(tx) {
			result = append(result, tx)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// AddInsight implements store.InsightRepository.
func (s *Store) AddInsight(ctx context.Context, insight *domain.Insight) error {
	if insight.UserID == "" {
		return fmt.Errorf("AddInsight: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insights[insight.UserID] = append(s.insights[insight.UserID], *insight)
	return nil
}

// ListInsights implements store.InsightRepository.
func (s *Store) ListInsights(ctx context.Context, userID string, limit int) ([]domain.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.insights[userID]
	result := make([]domain.Insight, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
