package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertInsightWithClient appends an insight row.
func InsertInsightWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *InsightRow) error {
	sql := `
		INSERT INTO ` + ds.Table(insightsTable) + ` (
			insight_id, user_id, insight_type, summary, total_spent,
			transaction_count, top_categories, concerns, recommendation, created_ts
		)
		VALUES (
			@insight_id, @user_id, @insight_type, @summary, @total_spent,
			@transaction_count, @top_categories, @concerns, @recommendation, @created_ts
		)
	`
	params := []bigquery.QueryParameter{
		{Name: "insight_id", Value: row.InsightID},
		{Name: "user_id", Value: row.UserID},
		{Name: "insight_type", Value: row.InsightType},
		{Name: "summary", Value: row.Summary},
		{Name: "total_spent", Value: row.TotalSpent},
		{Name: "transaction_count", Value: row.TransactionCount},
		{Name: "top_categories", Value: row.TopCategories},
		{Name: "concerns", Value: row.Concerns},
		{Name: "recommendation", Value: row.Recommendation},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := runDML(ctx, client, sql, params); err != nil {
		return fmt.Errorf("InsertInsight: %w", err)
	}
	return nil
}

// ListInsightsWithClient returns up to limit insights for a user, newest
// first. limit <= 0 means all.
func ListInsightsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, limit int) ([]*InsightRow, error) {
	sql := `
		SELECT insight_id, user_id, insight_type, summary, total_spent,
			transaction_count, top_categories, concerns, recommendation, created_ts
		FROM ` + ds.Table(insightsTable) + `
		WHERE user_id = @user_id
		ORDER BY created_ts DESC`
	params := []bigquery.QueryParameter{{Name: "user_id", Value: userID}}
	if limit > 0 {
		sql += ` LIMIT @limit`
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: limit})
	}

	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query read: %w", err)
	}

	var rows []*InsightRow
	for {
		var r InsightRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInsights: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
