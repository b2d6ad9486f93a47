package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/budget-insights/internal/amqp"
	"github.com/dvloznov/budget-insights/internal/api"
	"github.com/dvloznov/budget-insights/internal/app"
	"github.com/dvloznov/budget-insights/internal/jobs"
	"github.com/dvloznov/budget-insights/internal/jobs/inmemory"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/orchestrator"
)

func main() {
	// Missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, log, err := app.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(jobStore, inmemory.QueueOptions{
		Workers:    cfg.QueueWorkers,
		BufferSize: cfg.QueueBuffer,
	})

	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, transactionJobHandler(a)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	deps := api.Deps{
		Store:     a.Store,
		Publisher: jobQueue,
		Jobs:      jobStore,
		Logger:    log,
	}
	if svc := a.AI(); svc != nil {
		deps.AI = svc
	}
	if a.Exporter != nil {
		deps.Exporter = a.Exporter
	}

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.CallTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// transactionJobHandler runs the per-transaction budget check. With a broker
// configured the event is forwarded to the worker instead of run in-process.
func transactionJobHandler(a *app.App) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.TransactionCreatedJob) error {
		log := logger.FromContext(ctx)

		if a.Broker != nil {
			body, err := amqp.NewTransactionCreatedMessage(job.UserID, job.TransactionID).ToJSON()
			if err != nil {
				return err
			}
			if err := a.Broker.Publish(ctx, a.Config.AMQPEventsQueue, body); err != nil {
				return fmt.Errorf("forward transaction event: %w", err)
			}
			log.Debug().Str("job_id", job.JobID).Msg("Forwarded transaction event to worker")
			return nil
		}

		res := a.Orchestrator.TriggerTransaction(ctx, job.UserID, job.TransactionID)
		if res.Outcome == orchestrator.OutcomeFailed {
			return res.Err
		}

		log.Info().
			Str("job_id", job.JobID).
			Str("user_id", job.UserID).
			Str("transaction_id", job.TransactionID).
			Str("outcome", string(res.Outcome)).
			Str("reason", res.Reason).
			Bool("notified", res.Notified).
			Msg("Transaction budget check finished")
		return nil
	}
}
