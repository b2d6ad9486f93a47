package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/budget-insights/internal/app"
	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/store"
)

var flagLimit int

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the last 30 days of a user's spending",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(runAnalyze)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest category limits from income and recent spending",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(runRecommend)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export-insights",
	Short: "Mirror a user's stored insights to Notion",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(runExport)
	},
}

func init() {
	requireUser(analyzeCmd)
	requireUser(recommendCmd)
	requireUser(exportCmd)
	exportCmd.Flags().IntVarP(&flagLimit, "limit", "l", 0, "Export at most this many recent insights (0 = all)")

	rootCmd.AddCommand(analyzeCmd, recommendCmd, exportCmd)
}

// recentActivity loads what the interactive flows need for one user.
func recentActivity(ctx context.Context, a *app.App) (*domain.UserProfile, *domain.Budget, []domain.Transaction, error) {
	profile, err := store.FindUser(ctx, a.Store, flagUser)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load user: %w", err)
	}
	b, err := store.FindBudget(ctx, a.Store, flagUser)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load budget: %w", err)
	}
	w := budget.LastNDays(time.Now(), budget.AnalysisLookbackDays)
	txs, err := a.Store.QueryTransactions(ctx, flagUser, domain.TransactionFilter{Start: w.Start, End: w.End})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("query transactions: %w", err)
	}
	return profile, b, txs, nil
}

func runAnalyze(ctx context.Context, a *app.App) error {
	ai := a.AI()
	if ai == nil {
		return insights.ErrGenerationDisabled
	}

	profile, _, txs, err := recentActivity(ctx, a)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	out, err := ai.AnalyzeSpending(ctx, txs, profile)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	fmt.Println()
	fmt.Println(renderTitle("SPENDING ANALYSIS"))
	fmt.Println()
	fmt.Printf("  %s\n\n", out.Analysis)
	fmt.Print(renderList("Top categories", out.TopCategories))
	fmt.Print(renderList("Concerns", out.Concerns))
	if out.Recommendation != "" {
		fmt.Println()
		fmt.Println(headerStyle.Render("  Recommendation"))
		fmt.Printf("    %s\n", out.Recommendation)
	}
	if out.Fallback {
		fmt.Println()
		fmt.Println(warnStyle.Render("  Model reply was not structured; showing raw text."))
	}
	fmt.Println()
	return nil
}

func runRecommend(ctx context.Context, a *app.App) error {
	ai := a.AI()
	if ai == nil {
		return insights.ErrGenerationDisabled
	}

	profile, current, txs, err := recentActivity(ctx, a)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	rec, err := ai.RecommendBudget(ctx, txs, profile, current)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	currency := domain.DefaultCurrency
	if profile != nil && profile.Currency != "" {
		currency = profile.Currency
	}

	suggested := &domain.Budget{Categories: rec.Categories}

	fmt.Println()
	fmt.Println(renderTitle("RECOMMENDED BUDGET"))
	fmt.Println()
	for _, c := range suggested.OrderedCategories() {
		line := fmt.Sprintf("  %-16s %12s", c, formatMoney(rec.Categories[c], currency))
		if limit, ok := current.Limit(c); ok {
			line += mutedStyle.Render(fmt.Sprintf("  (now %s)", formatMoney(limit, currency)))
		}
		fmt.Println(line)
	}
	fmt.Printf("\n  %-16s %12s\n", "Total", formatMoney(suggested.Total(), currency))
	if rec.Reasoning != "" {
		fmt.Printf("\n  %s\n", rec.Reasoning)
	}
	if !rec.Generated {
		fmt.Println(mutedStyle.Render("\n  No recent spending; showing the default allocation."))
	}
	fmt.Println()
	return nil
}

func runExport(ctx context.Context, a *app.App) error {
	if a.Exporter == nil {
		return fmt.Errorf("export-insights: NOTION_TOKEN and NOTION_INSIGHTS_DB_ID are not configured")
	}

	list, err := a.Store.ListInsights(ctx, flagUser, flagLimit)
	if err != nil {
		return fmt.Errorf("export-insights: list insights: %w", err)
	}

	var failed int
	for _, in := range list {
		if err := a.Exporter.ExportInsight(ctx, in); err != nil {
			failed++
			a.Logger.Error().Err(err).Str("insight_id", in.ID).Msg("Failed to export insight")
		}
	}

	fmt.Printf("\n  Exported %s of %d insight(s) for %s\n\n",
		okStyle.Render(fmt.Sprint(len(list)-failed)), len(list), flagUser)
	if failed > 0 {
		return fmt.Errorf("export-insights: %d insight(s) failed", failed)
	}
	return nil
}
