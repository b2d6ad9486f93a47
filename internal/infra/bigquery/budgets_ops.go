package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// GetBudgetWithClient loads the user's current budget.
func GetBudgetWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) (*BudgetRow, error) {
	q := client.Query(`
		SELECT user_id, categories, created_ts, updated_ts
		FROM ` + ds.Table(budgetsTable) + `
		WHERE user_id = @user_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetBudget: query read: %w", err)
	}

	var row BudgetRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetBudget %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetBudget: iter next: %w", err)
	}

	return &row, nil
}

// SaveBudgetWithClient replaces the user's budget.
func SaveBudgetWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *BudgetRow) error {
	sql := `
		MERGE ` + ds.Table(budgetsTable) + ` T
		USING (SELECT @user_id AS user_id) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN UPDATE SET
			categories = @categories,
			created_ts = @created_ts,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (user_id, categories, created_ts, updated_ts)
		VALUES (@user_id, @categories, @created_ts, @updated_ts)
	`
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: row.UserID},
		{Name: "categories", Value: row.Categories},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if _, err := runDML(ctx, client, sql, params); err != nil {
		return fmt.Errorf("SaveBudget: %w", err)
	}
	return nil
}
