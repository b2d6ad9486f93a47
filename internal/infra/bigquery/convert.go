package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
)

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func userToRow(u *domain.UserProfile) *UserRow {
	currency := u.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &UserRow{
		UserID:        u.ID,
		Email:         nullString(u.Email),
		DisplayName:   nullString(u.DisplayName),
		MonthlyIncome: bigquery.NullFloat64{Float64: u.MonthlyIncome, Valid: true},
		Currency:      currency,
		FCMToken:      nullString(u.FCMToken),
		CreatedTS:     u.CreatedAt.UTC(),
	}
}

func rowToUser(r *UserRow) *domain.UserProfile {
	return &domain.UserProfile{
		ID:            r.UserID,
		Email:         r.Email.StringVal,
		DisplayName:   r.DisplayName.StringVal,
		MonthlyIncome: r.MonthlyIncome.Float64,
		Currency:      r.Currency,
		FCMToken:      r.FCMToken.StringVal,
		CreatedAt:     r.CreatedTS.UTC(),
	}
}

func budgetToRow(b *domain.Budget) (*BudgetRow, error) {
	cats := b.Categories
	if cats == nil {
		cats = map[domain.Category]float64{}
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return nil, fmt.Errorf("budgetToRow: encode categories: %w", err)
	}
	return &BudgetRow{
		UserID:     b.UserID,
		Categories: bigquery.NullJSON{JSONVal: string(raw), Valid: true},
		CreatedTS:  b.CreatedAt.UTC(),
		UpdatedTS:  b.UpdatedAt.UTC(),
	}, nil
}

func rowToBudget(r *BudgetRow) (*domain.Budget, error) {
	b := &domain.Budget{
		UserID:     r.UserID,
		Categories: map[domain.Category]float64{},
		CreatedAt:  r.CreatedTS.UTC(),
		UpdatedAt:  r.UpdatedTS.UTC(),
	}
	if r.Categories.Valid && r.Categories.JSONVal != "" {
		if err := json.Unmarshal([]byte(r.Categories.JSONVal), &b.Categories); err != nil {
			return nil, fmt.Errorf("rowToBudget: decode categories: %w", err)
		}
	}
	return b, nil
}

func transactionToRow(tx *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		TransactionTS:   tx.Date.UTC(),
		TransactionDate: civil.DateOf(tx.Date.UTC()),
		Amount:          tx.Amount,
		Direction:       string(tx.Type),
		Description:     tx.Description,
		CategoryName:    nullString(string(tx.Category)),
		CreatedTS:       tx.CreatedAt.UTC(),
	}
	if tx.UpdatedAt != nil {
		row.UpdatedTS = bigquery.NullTimestamp{Timestamp: tx.UpdatedAt.UTC(), Valid: true}
	}
	return row
}

func rowToTransaction(r *TransactionRow) domain.Transaction {
	tx := domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Description: r.Description,
		Amount:      r.Amount,
		Category:    domain.Category(r.CategoryName.StringVal),
		Type:        domain.TransactionType(r.Direction),
		Date:        r.TransactionTS.UTC(),
		CreatedAt:   r.CreatedTS.UTC(),
	}
	if r.UpdatedTS.Valid {
		t := r.UpdatedTS.Timestamp.UTC()
		tx.UpdatedAt = &t
	}
	return tx
}

func insightToRow(in *domain.Insight) *InsightRow {
	top := make([]string, 0, len(in.TopCategories))
	for _, c := range in.TopCategories {
		top = append(top, string(c))
	}
	concerns := in.Concerns
	if concerns == nil {
		concerns = []string{}
	}
	return &InsightRow{
		InsightID:        in.ID,
		UserID:           in.UserID,
		InsightType:      string(in.Type),
		Summary:          in.Summary,
		TotalSpent:       in.TotalSpent,
		TransactionCount: int64(in.TransactionCount),
		TopCategories:    top,
		Concerns:         concerns,
		Recommendation:   nullString(in.Recommendation),
		CreatedTS:        in.CreatedAt.UTC(),
	}
}

func rowToInsight(r *InsightRow) domain.Insight {
	top := make([]domain.Category, 0, len(r.TopCategories))
	for _, c := range r.TopCategories {
		top = append(top, domain.Category(c))
	}
	concerns := r.Concerns
	if concerns == nil {
		concerns = []string{}
	}
	return domain.Insight{
		ID:               r.InsightID,
		UserID:           r.UserID,
		Type:             domain.InsightType(r.InsightType),
		Summary:          r.Summary,
		TotalSpent:       r.TotalSpent,
		TransactionCount: int(r.TransactionCount),
		TopCategories:    top,
		Concerns:         concerns,
		Recommendation:   r.Recommendation.StringVal,
		CreatedAt:        r.CreatedTS.UTC(),
	}
}

func replyToRow(rec insights.ReplyRecord) *ModelOutputRow {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &ModelOutputRow{
		OutputID:  rec.ID,
		Flow:      rec.Flow,
		UserID:    nullString(rec.UserID),
		ModelName: rec.Model,
		Prompt:    nullString(rec.Prompt),
		RawText:   rec.Reply,
		Parsed:    rec.Parsed,
		CreatedTS: created.UTC(),
	}
}
