// Package app assembles the shared runtime of the budget-insights binaries
// from a validated configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-insights/internal/amqp"
	"github.com/dvloznov/budget-insights/internal/archive"
	"github.com/dvloznov/budget-insights/internal/config"
	infraBQ "github.com/dvloznov/budget-insights/internal/infra/bigquery"
	"github.com/dvloznov/budget-insights/internal/infra/sqlite"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/notify"
	"github.com/dvloznov/budget-insights/internal/notionsync"
	"github.com/dvloznov/budget-insights/internal/orchestrator"
	"github.com/dvloznov/budget-insights/internal/store"
	"github.com/dvloznov/budget-insights/internal/store/inmemory"
)

// App holds the wired collaborators. Optional parts are nil when not configured.
type App struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Store        store.Store
	Insights     *insights.Service
	Sender       notify.Sender
	Exporter     orchestrator.InsightExporter
	Broker       *amqp.Client
	Orchestrator *orchestrator.Orchestrator

	closers []io.Closer
}

// New builds an App. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (a *App, err error) {
	a = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	var replies archive.Tee

	switch cfg.DataBackend {
	case config.BackendSQLite:
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return a, fmt.Errorf("app.New: open sqlite store: %w", err)
		}
		a.Store = repo
	case config.BackendBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			return a, fmt.Errorf("app.New: open bigquery store: %w", err)
		}
		a.Store = repo
		replies = append(replies, repo)
	default:
		a.Store = inmemory.NewStore()
	}
	a.closers = append(a.closers, a.Store)
	log.Info().Str("backend", cfg.DataBackend).Msg("Store ready")

	if cfg.ArchiveBucket != "" {
		gcs, err := archive.NewGCSArchive(ctx, cfg.ArchiveBucket)
		if err != nil {
			return a, fmt.Errorf("app.New: %w", err)
		}
		a.closers = append(a.closers, gcs)
		replies = append(replies, gcs)
		log.Info().Str("bucket", cfg.ArchiveBucket).Msg("Archiving model replies to GCS")
	}

	var gen insights.Generator = insights.DisabledGenerator{}
	if cfg.GenerationEnabled() {
		gemini, err := insights.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return a, fmt.Errorf("app.New: %w", err)
		}
		gen = gemini
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, AI features disabled")
	}

	var replyArchive insights.ReplyArchive
	if len(replies) > 0 {
		replyArchive = replies
	}
	a.Insights = insights.NewService(gen, replyArchive, cfg.GeminiModel)

	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPNotifyQueue, cfg.AMQPEventsQueue)
		if err != nil {
			return a, fmt.Errorf("app.New: %w", err)
		}
		a.Broker = broker
		a.closers = append(a.closers, broker)
	}

	if cfg.NotifyBackend == config.NotifyAMQP && a.Broker != nil {
		a.Sender = notify.NewAMQPSender(a.Broker, cfg.AMQPNotifyQueue)
	} else {
		a.Sender = notify.NewLogSender(log)
	}

	if cfg.NotionEnabled() {
		a.Exporter = notionsync.NewExporter(notionsync.NewNotionClient(cfg.NotionToken), cfg.NotionInsightsDBID)
		log.Info().Msg("Exporting insights to Notion")
	}

	a.Orchestrator = orchestrator.New(orchestrator.Deps{
		Store:    a.Store,
		Sender:   a.Sender,
		Insights: a.Insights,
		Exporter: a.Exporter,
		Logger:   log,
	}, orchestrator.Options{
		Concurrency: cfg.BatchConcurrency,
		CallTimeout: cfg.CallTimeout,
	})

	return a, nil
}

// AI returns the insight service, or nil when generation is disabled.
func (a *App) AI() *insights.Service {
	if !a.Config.GenerationEnabled() {
		return nil
	}
	return a.Insights
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Load reads and validates the configuration and builds a logger from it.
// On error the returned logger is the default one, for reporting the failure.
func Load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, logger.New(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, logger.New(), err
	}
	return cfg, logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat), nil
}
