package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/budget-insights/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "budget.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetUser() error = %v, want ErrNotFound", err)
	}

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, id := range []string{"u2", "u1"} {
		if err := repo.SaveUser(ctx, &domain.UserProfile{ID: id, Email: id + "@example.com", CreatedAt: created}); err != nil {
			t.Fatalf("SaveUser(%s) error = %v", id, err)
		}
	}

	ids, err := repo.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListUserIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("ListUserIDs() = %v, want [u1 u2]", ids)
	}

	u, err := repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if u.Currency != domain.DefaultCurrency {
		t.Errorf("Currency = %q, want %q", u.Currency, domain.DefaultCurrency)
	}
	if !u.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", u.CreatedAt, created)
	}

	u.MonthlyIncome = 4200
	u.Currency = "EUR"
	if err := repo.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser() update error = %v", err)
	}
	u, _ = repo.GetUser(ctx, "u1")
	if u.MonthlyIncome != 4200 || u.Currency != "EUR" {
		t.Errorf("updated profile = %+v", u)
	}
}

func TestRepository_Budget(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if _, err := repo.GetBudget(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetBudget() error = %v, want ErrNotFound", err)
	}

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := &domain.Budget{
		UserID:     "u1",
		Categories: map[domain.Category]float64{domain.CategoryFood: 500, domain.CategoryTransportation: 120.5},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("SaveBudget() error = %v", err)
	}

	got, err := repo.GetBudget(ctx, "u1")
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got.Categories[domain.CategoryFood] != 500 || got.Categories[domain.CategoryTransportation] != 120.5 {
		t.Errorf("Categories = %v", got.Categories)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}
}

func TestRepository_Transactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "a", UserID: "u1", Amount: 10, Category: domain.CategoryFood, Type: domain.TransactionTypeExpense, Date: base},
		{ID: "b", UserID: "u1", Amount: 20, Category: domain.CategoryFood, Type: domain.TransactionTypeExpense, Date: base.AddDate(0, 0, 2)},
		{ID: "c", UserID: "u1", Amount: 3000, Category: "", Type: domain.TransactionTypeIncome, Date: base.AddDate(0, 0, 1)},
		{ID: "d", UserID: "u1", Amount: 5, Category: domain.CategoryShopping, Type: domain.TransactionTypeExpense, Date: base.AddDate(0, 1, 0)},
		{ID: "e", UserID: "u2", Amount: 99, Category: domain.CategoryFood, Type: domain.TransactionTypeExpense, Date: base},
	}
	for i := range txs {
		txs[i].CreatedAt = base
		if err := repo.AddTransaction(ctx, &txs[i]); err != nil {
			t.Fatalf("AddTransaction(%s) error = %v", txs[i].ID, err)
		}
	}

	tests := []struct {
		name   string
		filter domain.TransactionFilter
		want   []string
	}{
		{name: "all newest first", filter: domain.TransactionFilter{}, want: []string{"d", "b", "c", "a"}},
		{
			name:   "window and category",
			filter: domain.TransactionFilter{Start: base, End: base.AddDate(0, 0, 5), Category: domain.CategoryFood},
			want:   []string{"b", "a"},
		},
		{name: "blank category matches other", filter: domain.TransactionFilter{Category: domain.CategoryOther}, want: []string{"c"}},
		{name: "type with limit", filter: domain.TransactionFilter{Type: domain.TransactionTypeExpense, Limit: 2}, want: []string{"d", "b"}},
		{name: "end is exclusive", filter: domain.TransactionFilter{End: base}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryTransactions(ctx, "u1", tt.filter)
			if err != nil {
				t.Fatalf("QueryTransactions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("QueryTransactions() returned %d, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("result[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	tx, err := repo.GetTransaction(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if !tx.Date.Equal(base) || tx.UpdatedAt != nil {
		t.Errorf("GetTransaction() = %+v", tx)
	}

	updated := base.Add(time.Hour)
	tx.Amount = 11
	tx.UpdatedAt = &updated
	if err := repo.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	tx, _ = repo.GetTransaction(ctx, "u1", "a")
	if tx.Amount != 11 || tx.UpdatedAt == nil || !tx.UpdatedAt.Equal(updated) {
		t.Errorf("after update = %+v", tx)
	}

	if _, err := repo.GetTransaction(ctx, "u2", "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetTransaction() other user error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, "u1", "a"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "u1", "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteTransaction() twice error = %v, want ErrNotFound", err)
	}
	missing := domain.Transaction{ID: "zzz", UserID: "u1"}
	if err := repo.UpdateTransaction(ctx, &missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateTransaction() missing error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Insights(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"i1", "i2", "i3"} {
		in := &domain.Insight{
			ID:            id,
			UserID:        "u1",
			Type:          domain.InsightTypeWeekly,
			Summary:       "summary " + id,
			TopCategories: []domain.Category{domain.CategoryFood},
			CreatedAt:     base.AddDate(0, 0, 7*i),
		}
		if err := repo.AddInsight(ctx, in); err != nil {
			t.Fatalf("AddInsight() error = %v", err)
		}
	}

	got, err := repo.ListInsights(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListInsights() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "i3" || got[1].ID != "i2" {
		t.Fatalf("ListInsights() = %+v", got)
	}
	if len(got[0].TopCategories) != 1 || got[0].TopCategories[0] != domain.CategoryFood {
		t.Errorf("TopCategories = %v", got[0].TopCategories)
	}
	if got[0].Concerns == nil {
		t.Error("Concerns = nil, want empty slice")
	}

	all, _ := repo.ListInsights(ctx, "u1", 0)
	if len(all) != 3 {
		t.Errorf("ListInsights(0) returned %d, want 3", len(all))
	}

	none, err := repo.ListInsights(ctx, "nobody", 0)
	if err != nil || len(none) != 0 {
		t.Errorf("ListInsights(nobody) = %v, %v", none, err)
	}
}
