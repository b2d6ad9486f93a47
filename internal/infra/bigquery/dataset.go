package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	usersTable        = "users"
	budgetsTable      = "budgets"
	transactionsTable = "transactions"
	insightsTable     = "insights"
	modelOutputsTable = "model_outputs"
)

// Dataset identifies the BigQuery dataset holding the budget tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// Table returns the fully qualified, backtick-quoted table name.
func (d Dataset) Table(name string) string {
	return "`" + d.ProjectID + "." + d.DatasetID + "." + name + "`"
}

// runDML runs a DML statement, waits for it and returns the number of
// affected rows.
func runDML(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}
