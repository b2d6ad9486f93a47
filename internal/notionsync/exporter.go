// Package notionsync mirrors generated insights into a Notion database.
package notionsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/logger"
)

// Exporter writes one page per insight. Re-exporting the same insight
// updates its existing page instead of creating a duplicate.
type Exporter struct {
	client     NotionService
	databaseID string
}

// NewExporter creates an Exporter for the given insights database.
func NewExporter(client NotionService, databaseID string) *Exporter {
	return &Exporter{client: client, databaseID: databaseID}
}

// ExportInsight creates or updates the page for in.
func (e *Exporter) ExportInsight(ctx context.Context, in domain.Insight) error {
	if in.ID == "" {
		return errors.New("ExportInsight: insight has no ID")
	}
	log := logger.FromContext(ctx)

	props := InsightToNotionProperties(in)

	pageID, err := e.findPage(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("ExportInsight: %w", err)
	}

	if pageID != "" {
		if _, err := e.client.UpdatePage(ctx, pageID, props); err != nil {
			return fmt.Errorf("ExportInsight: %w", err)
		}
		log.Debug().Str("insight_id", in.ID).Str("page_id", pageID).Msg("Updated Notion insight page")
		return nil
	}

	page, err := e.client.CreatePage(ctx, e.databaseID, props)
	if err != nil {
		return fmt.Errorf("ExportInsight: %w", err)
	}
	log.Debug().Str("insight_id", in.ID).Str("page_id", string(page.ID)).Msg("Created Notion insight page")
	return nil
}

// findPage returns the ID of the page already holding insightID, if any.
func (e *Exporter) findPage(ctx context.Context, insightID string) (string, error) {
	resp, err := e.client.QueryDatabase(ctx, e.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: PropInsightID,
			RichText: &notionapi.TextFilterCondition{Equals: insightID},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", fmt.Errorf("findPage: %w", err)
	}

	for _, page := range resp.Results {
		if extractInsightID(page) == insightID {
			return string(page.ID), nil
		}
	}
	return "", nil
}
