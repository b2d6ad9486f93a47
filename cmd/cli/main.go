// Command cli runs the budget jobs by hand and prints budget state for one user.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dvloznov/budget-insights/internal/app"
)

var (
	flagUser    string
	flagTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "budget",
	Short:         "Budget insights operator CLI",
	Long:          "Run the daily and weekly budget jobs, replay transaction triggers and inspect a user's budget.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 10*time.Minute, "Overall command timeout")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("  Error: "+err.Error()))
		os.Exit(1)
	}
}

// withApp loads the configuration, wires the application and runs fn with a
// context bounded by --timeout.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, log, err := app.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing resources")
		}
	}()

	return fn(ctx, a)
}

func requireUser(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagUser, "user", "u", "", "User ID")
	_ = cmd.MarkFlagRequired("user")
}
