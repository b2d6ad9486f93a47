package insights

import (
	"reflect"
	"testing"
	"time"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{Category: domain.CategoryFood, Type: domain.TransactionTypeExpense, Amount: 80, Date: now},
		{Category: domain.CategoryShopping, Type: domain.TransactionTypeExpense, Amount: 120, Date: now},
		{Category: "", Type: domain.TransactionTypeExpense, Amount: 20, Date: now},
		{Category: domain.CategoryOther, Type: domain.TransactionTypeIncome, Amount: 1500, Date: now},
		{Category: domain.CategoryHousing, Type: domain.TransactionTypeExpense, Amount: 30, Date: now},
	}

	s := Summarize(txs)

	if s.TotalSpent != 250 {
		t.Errorf("TotalSpent = %v, want 250", s.TotalSpent)
	}
	if s.TransactionCount != 5 {
		t.Errorf("TransactionCount = %d, want 5", s.TransactionCount)
	}
	want := []domain.Category{domain.CategoryShopping, domain.CategoryFood, domain.CategoryHousing}
	if !reflect.DeepEqual(s.TopCategories, want) {
		t.Errorf("TopCategories = %v, want %v", s.TopCategories, want)
	}
}

func TestTopCategories_TieBreakByName(t *testing.T) {
	spending := budget.CategorySpending{
		domain.CategoryUtilities:     50,
		domain.CategoryEntertainment: 50,
		domain.CategoryHousing:       50,
		domain.CategoryFood:          50,
		domain.CategorySavings:       10,
	}

	want := []domain.Category{domain.CategoryEntertainment, domain.CategoryFood, domain.CategoryHousing}
	for i := 0; i < 10; i++ {
		if got := TopCategories(spending, 3); !reflect.DeepEqual(got, want) {
			t.Fatalf("TopCategories() = %v, want %v", got, want)
		}
	}
}

func TestTopCategories_FewerThanN(t *testing.T) {
	got := TopCategories(budget.CategorySpending{domain.CategoryFood: 1}, 3)
	if len(got) != 1 {
		t.Errorf("expected 1 category, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	short := "All good this week."
	if got := Truncate(short, 100); got != short {
		t.Errorf("Truncate(short) = %q", got)
	}

	long := ""
	for i := 0; i < 30; i++ {
		long += "€uro "
	}
	got := Truncate(long, 100)
	if got != string([]rune(long)[:100])+"..." {
		t.Errorf("Truncate(long) = %q", got)
	}
}
