package notionsync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// MockNotionService is a mock implementation of NotionService.
type MockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return m.CreatePageFunc(ctx, databaseID, properties)
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return m.UpdatePageFunc(ctx, pageID, properties)
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return m.QueryDatabaseFunc(ctx, databaseID, req)
}

func sampleInsight() domain.Insight {
	return domain.Insight{
		ID:               "ins-1",
		UserID:           "u1",
		Type:             domain.InsightTypeWeekly,
		Summary:          "You spent most on food.",
		TotalSpent:       123.45,
		TransactionCount: 7,
		TopCategories:    []domain.Category{domain.CategoryFood, domain.CategoryHousing},
		Concerns:         []string{"Dining out", "Subscriptions"},
		CreatedAt:        time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC),
	}
}

func pageWithInsightID(pageID, insightID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			PropInsightID: &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: insightID}},
			},
		},
	}
}

func TestInsightToNotionProperties(t *testing.T) {
	props := InsightToNotionProperties(sampleInsight())

	title, ok := props[PropName].(notionapi.TitleProperty)
	if !ok {
		t.Fatalf("expected title property, got %T", props[PropName])
	}
	if got := title.Title[0].Text.Content; got != "Weekly insight 2024-03-18 (u1)" {
		t.Errorf("title = %q", got)
	}

	if n := props[PropTotalSpent].(notionapi.NumberProperty).Number; n != 123.45 {
		t.Errorf("total spent = %v", n)
	}
	if n := props[PropTransactions].(notionapi.NumberProperty).Number; n != 7 {
		t.Errorf("transactions = %v", n)
	}
	if s := props[PropType].(notionapi.SelectProperty).Select.Name; s != "weekly" {
		t.Errorf("type = %q", s)
	}

	ms := props[PropTopCategories].(notionapi.MultiSelectProperty).MultiSelect
	if len(ms) != 2 || ms[0].Name != "Food & Groceries" {
		t.Errorf("top categories = %+v", ms)
	}

	concerns := props[PropConcerns].(notionapi.RichTextProperty).RichText[0].Text.Content
	if concerns != "Dining out\nSubscriptions" {
		t.Errorf("concerns = %q", concerns)
	}

	if _, ok := props[PropCreated].(notionapi.DateProperty); !ok {
		t.Errorf("expected created date property")
	}
}

func TestInsightToNotionProperties_OmitsEmptyFields(t *testing.T) {
	props := InsightToNotionProperties(domain.Insight{ID: "x", UserID: "u"})

	for _, key := range []string{PropType, PropSummary, PropTopCategories, PropConcerns, PropCreated} {
		if _, ok := props[key]; ok {
			t.Errorf("expected %q to be omitted", key)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", maxRichText+10)
	got := truncate(long, maxRichText)
	if n := len([]rune(got)); n != maxRichText {
		t.Errorf("truncated length = %d, want %d", n, maxRichText)
	}
	if truncate("short", maxRichText) != "short" {
		t.Error("short strings must be unchanged")
	}
}

func TestExportInsight(t *testing.T) {
	tests := []struct {
		name       string
		existing   []notionapi.Page
		queryErr   error
		wantCreate bool
		wantUpdate string
		wantErr    bool
	}{
		{
			name:       "creates page when none exists",
			wantCreate: true,
		},
		{
			name:       "updates existing page",
			existing:   []notionapi.Page{pageWithInsightID("page-9", "ins-1")},
			wantUpdate: "page-9",
		},
		{
			name:       "ignores pages for other insights",
			existing:   []notionapi.Page{pageWithInsightID("page-9", "ins-2")},
			wantCreate: true,
		},
		{
			name:     "query failure",
			queryErr: errors.New("rate limited"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created bool
			var updated string
			mock := &MockNotionService{
				QueryDatabaseFunc: func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
					if databaseID != "db-1" {
						t.Errorf("databaseID = %q", databaseID)
					}
					if tt.queryErr != nil {
						return nil, tt.queryErr
					}
					return &notionapi.DatabaseQueryResponse{Results: tt.existing}, nil
				},
				CreatePageFunc: func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
					created = true
					return &notionapi.Page{ID: "new-page"}, nil
				},
				UpdatePageFunc: func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
					updated = pageID
					return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
				},
			}

			err := NewExporter(mock, "db-1").ExportInsight(context.Background(), sampleInsight())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExportInsight() error = %v, wantErr %v", err, tt.wantErr)
			}
			if created != tt.wantCreate {
				t.Errorf("created = %v, want %v", created, tt.wantCreate)
			}
			if updated != tt.wantUpdate {
				t.Errorf("updated = %q, want %q", updated, tt.wantUpdate)
			}
		})
	}
}

func TestExportInsight_RequiresID(t *testing.T) {
	err := NewExporter(&MockNotionService{}, "db-1").ExportInsight(context.Background(), domain.Insight{})
	if err == nil {
		t.Fatal("expected error for insight without ID")
	}
}
