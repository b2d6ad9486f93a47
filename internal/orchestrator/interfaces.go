package orchestrator

import (
	"context"

	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
)

// WeeklyInsighter produces the weekly summary for one user. It never fails;
// generation problems come back as a fallback insight.
type WeeklyInsighter interface {
	WeeklyInsight(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile) insights.WeeklyInsight
}

// InsightExporter mirrors persisted insights to an external workspace.
type InsightExporter interface {
	ExportInsight(ctx context.Context, insight domain.Insight) error
}

var _ WeeklyInsighter = (*insights.Service)(nil)
