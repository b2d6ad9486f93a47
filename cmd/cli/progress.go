package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/budget-insights/internal/app"
	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/store"
)

var flagMonth string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show a user's spending against their budget for a month",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(runProgress)
	},
}

func init() {
	requireUser(progressCmd)
	progressCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	rootCmd.AddCommand(progressCmd)
}

func runProgress(ctx context.Context, a *app.App) error {
	window, err := monthWindow(flagMonth, time.Now().In(a.Config.Location()))
	if err != nil {
		return err
	}

	profile, err := store.FindUser(ctx, a.Store, flagUser)
	if err != nil {
		return fmt.Errorf("progress: load user: %w", err)
	}
	b, err := store.FindBudget(ctx, a.Store, flagUser)
	if err != nil {
		return fmt.Errorf("progress: load budget: %w", err)
	}
	txs, err := a.Store.QueryTransactions(ctx, flagUser, domain.TransactionFilter{Start: window.Start, End: window.End})
	if err != nil {
		return fmt.Errorf("progress: query transactions: %w", err)
	}

	currency := domain.DefaultCurrency
	if profile != nil && profile.Currency != "" {
		currency = profile.Currency
	}

	fmt.Println()
	fmt.Print(renderProgress(budget.BuildProgress(txs, b, window), currency))
	fmt.Println()
	return nil
}

// monthWindow parses YYYY-MM in now's location, or returns now's month when
// month is empty.
func monthWindow(month string, now time.Time) (budget.Window, error) {
	if month == "" {
		return budget.CurrentMonth(now), nil
	}
	t, err := time.ParseInLocation("2006-01", month, now.Location())
	if err != nil {
		return budget.Window{}, fmt.Errorf("invalid --month %q, expected YYYY-MM", month)
	}
	return budget.Month(t.Year(), t.Month(), now.Location()), nil
}
