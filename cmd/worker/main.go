package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/budget-insights/internal/amqp"
	"github.com/dvloznov/budget-insights/internal/app"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/schedule"
)

func main() {
	_ = godotenv.Load()

	cfg, log, err := app.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	sched, err := schedule.New(cfg.Timezone, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	if err := sched.Add("daily_budget_check", cfg.DailySchedule, func(ctx context.Context) {
		a.Orchestrator.RunDaily(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule daily budget check")
	}
	if err := sched.Add("weekly_insights", cfg.WeeklySchedule, func(ctx context.Context) {
		a.Orchestrator.RunWeekly(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule weekly insights")
	}

	sched.Start()
	log.Info().
		Time("next_daily", sched.Next("daily_budget_check")).
		Time("next_weekly", sched.Next("weekly_insights")).
		Str("timezone", cfg.Timezone).
		Msg("Worker service started")

	var wg sync.WaitGroup
	if cfg.AMQPURL != "" {
		dial := func() (*amqp.Client, error) {
			return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPNotifyQueue, cfg.AMQPEventsQueue)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Str("queue", cfg.AMQPEventsQueue).Msg("Consuming transaction events")
			err := amqp.ConsumeWithRetry(ctx, dial, cfg.AMQPEventsQueue, transactionEventHandler(a.Orchestrator))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Transaction event consumer stopped")
			}
		}()
	} else {
		log.Info().Msg("AMQP_URL not set, per-transaction events disabled")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Scheduled tasks did not finish in time")
	}

	cancel()
	wg.Wait()

	log.Info().Msg("Worker service exited")
}
