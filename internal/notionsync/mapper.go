package notionsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/budget-insights/internal/domain"
)

// Property names of the insights database.
const (
	PropName          = "Name"
	PropInsightID     = "Insight ID"
	PropUser          = "User"
	PropType          = "Type"
	PropSummary       = "Summary"
	PropTotalSpent    = "Total Spent"
	PropTransactions  = "Transactions"
	PropTopCategories = "Top Categories"
	PropConcerns      = "Concerns"
	PropCreated       = "Created"
)

// maxRichText is the Notion limit for a single rich text object.
const maxRichText = 2000

// InsightToNotionProperties converts an insight to properties of the insights database.
func InsightToNotionProperties(in domain.Insight) notionapi.Properties {
	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Title: richText(PageTitle(in)),
		},
		PropInsightID: notionapi.RichTextProperty{
			RichText: richText(in.ID),
		},
		PropUser: notionapi.RichTextProperty{
			RichText: richText(in.UserID),
		},
		PropTotalSpent: notionapi.NumberProperty{
			Number: in.TotalSpent,
		},
		PropTransactions: notionapi.NumberProperty{
			Number: float64(in.TransactionCount),
		},
	}

	if in.Type != "" {
		props[PropType] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(in.Type)},
		}
	}

	if in.Summary != "" {
		props[PropSummary] = notionapi.RichTextProperty{
			RichText: richText(in.Summary),
		}
	}

	if len(in.TopCategories) > 0 {
		options := make([]notionapi.Option, 0, len(in.TopCategories))
		for _, c := range in.TopCategories {
			// Select options may not contain commas.
			options = append(options, notionapi.Option{Name: strings.ReplaceAll(string(c), ",", "")})
		}
		props[PropTopCategories] = notionapi.MultiSelectProperty{
			MultiSelect: options,
		}
	}

	if len(in.Concerns) > 0 {
		props[PropConcerns] = notionapi.RichTextProperty{
			RichText: richText(strings.Join(in.Concerns, "\n")),
		}
	}

	if !in.CreatedAt.IsZero() {
		d := notionapi.Date(in.CreatedAt.UTC())
		props[PropCreated] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}

	return props
}

// PageTitle renders e.g. "Weekly insight 2024-03-18 (u1)".
func PageTitle(in domain.Insight) string {
	kind := "Insight"
	if in.Type != "" {
		t := string(in.Type)
		kind = strings.ToUpper(t[:1]) + t[1:] + " insight"
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("%s %s (%s)", kind, created.UTC().Format("2006-01-02"), in.UserID)
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: truncate(s, maxRichText)},
		},
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func extractInsightID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropInsightID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			return rt.RichText[0].PlainText
		}
	}
	return ""
}
