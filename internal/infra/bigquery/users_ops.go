package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// ListUserIDsWithClient returns all user ids in ascending order.
func ListUserIDsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]string, error) {
	q := client.Query(`SELECT user_id FROM ` + ds.Table(usersTable) + ` ORDER BY user_id`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: query read: %w", err)
	}

	var ids []string
	for {
		var row struct {
			UserID string `bigquery:"user_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUserIDs: iter next: %w", err)
		}
		ids = append(ids, row.UserID)
	}

	return ids, nil
}

// GetUserWithClient loads a single user profile.
func GetUserWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) (*UserRow, error) {
	q := client.Query(`
		SELECT user_id, email, display_name, monthly_income, currency, fcm_token, created_ts
		FROM ` + ds.Table(usersTable) + `
		WHERE user_id = @user_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetUser: query read: %w", err)
	}

	var row UserRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetUser %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: iter next: %w", err)
	}

	return &row, nil
}

// SaveUserWithClient upserts a user profile.
func SaveUserWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *UserRow) error {
	sql := `
		MERGE ` + ds.Table(usersTable) + ` T
		USING (SELECT @user_id AS user_id) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN UPDATE SET
			email = @email,
			display_name = @display_name,
			monthly_income = @monthly_income,
			currency = @currency,
			fcm_token = @fcm_token
		WHEN NOT MATCHED THEN INSERT (
			user_id, email, display_name, monthly_income, currency, fcm_token, created_ts
		) VALUES (
			@user_id, @email, @display_name, @monthly_income, @currency, @fcm_token, @created_ts
		)
	`
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: row.UserID},
		{Name: "email", Value: row.Email},
		{Name: "display_name", Value: row.DisplayName},
		{Name: "monthly_income", Value: row.MonthlyIncome},
		{Name: "currency", Value: row.Currency},
		{Name: "fcm_token", Value: row.FCMToken},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := runDML(ctx, client, sql, params); err != nil {
		return fmt.Errorf("SaveUser: %w", err)
	}
	return nil
}
