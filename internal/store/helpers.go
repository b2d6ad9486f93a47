package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// FindBudget returns the user's budget, or nil if none exists.
func FindBudget(ctx context.Context, r BudgetRepository, userID string) (*domain.Budget, error) {
	b, err := r.GetBudget(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindUser returns the user's profile, or nil if none exists.
func FindUser(ctx context.Context, r UserRepository, userID string) (*domain.UserProfile, error) {
	u, err := r.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// MergeBudget overlays patch onto the user's current budget, creating it if
// absent, and saves the result.
func MergeBudget(ctx context.Context, r BudgetRepository, userID string, patch map[domain.Category]float64, now time.Time) (*domain.Budget, error) {
	current, err := FindBudget(ctx, r, userID)
	if err != nil {
		return nil, fmt.Errorf("MergeBudget: load budget: %w", err)
	}

	merged := current.Merge(patch, now)
	merged.UserID = userID
	if err := r.SaveBudget(ctx, merged); err != nil {
		return nil, fmt.Errorf("MergeBudget: save budget: %w", err)
	}
	return merged, nil
}

// UpdateProfile merges patch into the user's profile, creating it if absent.
func UpdateProfile(ctx context.Context, r UserRepository, userID string, patch domain.ProfilePatch, now time.Time) (*domain.UserProfile, error) {
	current, err := FindUser(ctx, r, userID)
	if err != nil {
		return nil, fmt.Errorf("UpdateProfile: load user: %w", err)
	}
	if current == nil {
		current = &domain.UserProfile{ID: userID, CreatedAt: now}
	}

	updated := current.Apply(patch)
	if err := r.SaveUser(ctx, &updated); err != nil {
		return nil, fmt.Errorf("UpdateProfile: save user: %w", err)
	}
	return &updated, nil
}
