package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// InsertModelOutputWithClient stores one raw model reply. Uses DML INSERT to
// avoid streaming buffer issues.
func InsertModelOutputWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *ModelOutputRow) error {
	sql := `
		INSERT INTO ` + ds.Table(modelOutputsTable) + ` (
			output_id, flow, user_id, model_name, prompt, raw_text, parsed, created_ts
		)
		VALUES (
			@output_id, @flow, @user_id, @model_name, @prompt, @raw_text, @parsed, @created_ts
		)
	`
	params := []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "flow", Value: row.Flow},
		{Name: "user_id", Value: row.UserID},
		{Name: "model_name", Value: row.ModelName},
		{Name: "prompt", Value: row.Prompt},
		{Name: "raw_text", Value: row.RawText},
		{Name: "parsed", Value: row.Parsed},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := runDML(ctx, client, sql, params); err != nil {
		return fmt.Errorf("InsertModelOutput: %w", err)
	}
	return nil
}
