package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/budget-insights/internal/domain"
)

const transactionColumns = `
	transaction_id, user_id, transaction_ts, transaction_date, amount,
	direction, description, category_name, created_ts, updated_ts`

// InsertTransactionWithClient inserts a single transaction. Uses DML INSERT so
// the row is immediately visible to UPDATE and DELETE.
func InsertTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *TransactionRow) error {
	sql := `
		INSERT INTO ` + ds.Table(transactionsTable) + ` (` + transactionColumns + `)
		VALUES (
			@transaction_id, @user_id, @transaction_ts, @transaction_date, @amount,
			@direction, @description, @category_name, @created_ts, @updated_ts
		)
	`
	if _, err := runDML(ctx, client, sql, transactionParams(row)); err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// UpdateTransactionWithClient rewrites the mutable fields of a transaction.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *TransactionRow) error {
	sql := `
		UPDATE ` + ds.Table(transactionsTable) + `
		SET transaction_ts = @transaction_ts,
			transaction_date = @transaction_date,
			amount = @amount,
			direction = @direction,
			description = @description,
			category_name = @category_name,
			updated_ts = @updated_ts
		WHERE user_id = @user_id AND transaction_id = @transaction_id
	`
	n, err := runDML(ctx, client, sql, transactionParams(row))
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateTransaction %s: %w", row.TransactionID, domain.ErrNotFound)
	}
	return nil
}

// DeleteTransactionWithClient removes a single transaction.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, transactionID string) error {
	sql := `
		DELETE FROM ` + ds.Table(transactionsTable) + `
		WHERE user_id = @user_id AND transaction_id = @transaction_id
	`
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	}
	n, err := runDML(ctx, client, sql, params)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteTransaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return nil
}

func transactionParams(row *TransactionRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "transaction_ts", Value: row.TransactionTS},
		{Name: "transaction_date", Value: row.TransactionDate},
		{Name: "amount", Value: row.Amount},
		{Name: "direction", Value: row.Direction},
		{Name: "description", Value: row.Description},
		{Name: "category_name", Value: row.CategoryName},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}
}

// GetTransactionWithClient loads one transaction of a user.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, transactionID string) (*TransactionRow, error) {
	q := client.Query(`SELECT ` + transactionColumns + ` FROM ` + ds.Table(transactionsTable) + `
		WHERE user_id = @user_id AND transaction_id = @transaction_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: query read: %w", err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetTransaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: iter next: %w", err)
	}
	return &row, nil
}

// buildTransactionQuery renders the SELECT for a filter. Category matching
// is left to the caller since it goes through normalization.
func buildTransactionQuery(ds Dataset, userID string, filter domain.TransactionFilter) (string, []bigquery.QueryParameter) {
	where := []string{"user_id = @user_id"}
	params := []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	if !filter.Start.IsZero() {
		where = append(where, "transaction_ts >= @start_ts")
		params = append(params, bigquery.QueryParameter{Name: "start_ts", Value: filter.Start.UTC()})
	}
	if !filter.End.IsZero() {
		where = append(where, "transaction_ts < @end_ts")
		params = append(params, bigquery.QueryParameter{Name: "end_ts", Value: filter.End.UTC()})
	}
	if filter.Type != "" {
		where = append(where, "direction = @direction")
		params = append(params, bigquery.QueryParameter{Name: "direction", Value: string(filter.Type)})
	}

	sql := `SELECT ` + transactionColumns + ` FROM ` + ds.Table(transactionsTable) + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY transaction_ts DESC, transaction_id`
	return sql, params
}

// QueryTransactionsWithClient returns a user's transactions matching filter,
// newest first.
func QueryTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, filter domain.TransactionFilter) ([]*TransactionRow, error) {
	sql, params := buildTransactionQuery(ds, userID, filter)
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		if filter.Category != "" && domain.NormalizeCategory(r.CategoryName.StringVal) != filter.Category {
			continue
		}
		rows = append(rows, &r)
		if filter.Limit > 0 && len(rows) == filter.Limit {
			break
		}
	}

	return rows, nil
}
