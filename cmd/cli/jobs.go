package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/budget-insights/internal/app"
	"github.com/dvloznov/budget-insights/internal/orchestrator"
)

var flagTransaction string

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily budget check for every user",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return printReport(a.Orchestrator.RunDaily(ctx))
		})
	},
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Generate weekly insights for every user",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return printReport(a.Orchestrator.RunWeekly(ctx))
		})
	},
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Replay the category check for one created transaction",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			res := a.Orchestrator.TriggerTransaction(ctx, flagUser, flagTransaction)
			fmt.Println()
			fmt.Print(renderResult(res))
			if res.Outcome == orchestrator.OutcomeFailed {
				return res.Err
			}
			return nil
		})
	},
}

func init() {
	requireUser(triggerCmd)
	triggerCmd.Flags().StringVarP(&flagTransaction, "transaction", "t", "", "Transaction ID")
	_ = triggerCmd.MarkFlagRequired("transaction")

	rootCmd.AddCommand(dailyCmd, weeklyCmd, triggerCmd)
}

func printReport(r orchestrator.Report) error {
	fmt.Println()
	fmt.Print(renderReport(r))
	fmt.Println()

	if r.Err != nil {
		return r.Err
	}
	if c := r.Counts(); c.Failed > 0 {
		return fmt.Errorf("%s: %d of %d users failed", r.Job, c.Failed, len(r.Results))
	}
	return nil
}
