package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-insights/internal/logger"
)

// Task is a scheduled handler. It receives a context cancelled when the
// scheduler stops.
type Task func(ctx context.Context)

// Scheduler runs named tasks on cron expressions in a fixed time zone.
// A task never overlaps with itself; a run that is still going when the next
// tick fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	ids    map[string]cron.EntryID
}

// New creates a scheduler for the named IANA time zone ("" means UTC).
func New(timezone string, log zerolog.Logger) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.New: load location %q: %w", timezone, err)
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(
			cron.Recover(cronLogger{log: log}),
			cron.SkipIfStillRunning(cronLogger{log: log}),
		),
	)

	return &Scheduler{
		cron:   c,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		ids:    make(map[string]cron.EntryID),
	}, nil
}

// Validate reports whether spec is a valid five-field cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Add registers task under name.
func (s *Scheduler) Add(name, spec string, task Task) error {
	if _, exists := s.ids[name]; exists {
		return fmt.Errorf("Add: task %q already registered", name)
	}

	id, err := s.cron.AddFunc(spec, func() {
		log := s.log.With().Str("task", name).Logger()
		start := time.Now()
		log.Info().Msg("Scheduled task started")
		task(logger.WithContext(s.ctx, log))
		log.Info().Dur("duration", time.Since(start)).Msg("Scheduled task finished")
	})
	if err != nil {
		return fmt.Errorf("Add %s: %w", name, err)
	}

	s.ids[name] = id
	s.log.Info().Str("task", name).Str("schedule", spec).Msg("Task scheduled")
	return nil
}

// Next returns the next activation of the named task, or the zero time if it
// is unknown or the scheduler is not running.
func (s *Scheduler) Next(name string) time.Time {
	id, ok := s.ids[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels running tasks' context and waits for them
// to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
