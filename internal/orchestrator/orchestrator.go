package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/notify"
	"github.com/dvloznov/budget-insights/internal/store"
)

// DefaultCallTimeout bounds every downstream call when Options leaves it unset.
const DefaultCallTimeout = 30 * time.Second

// WeeklyNotificationTitle is the title of the weekly insight push.
const WeeklyNotificationTitle = "📊 Your Weekly Spending Insights"

// Deps are the collaborators of the orchestrator. Exporter may be nil.
type Deps struct {
	Store    store.Store
	Sender   notify.Sender
	Insights WeeklyInsighter
	Exporter InsightExporter
	Logger   zerolog.Logger
}

// Options tune batch execution.
type Options struct {
	// Concurrency is the number of users processed at once. Values below 1
	// mean one user at a time.
	Concurrency int
	CallTimeout time.Duration
	Now         func() time.Time
}

// Orchestrator drives the budget checks and weekly insights per user.
type Orchestrator struct {
	deps Deps
	opts Options
}

// New creates an Orchestrator, filling unset options with defaults.
func New(deps Deps, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{deps: deps, opts: opts}
}

// call runs fn under the per-call timeout.
func (o *Orchestrator) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}

// RunDaily checks every user's current-month spending against their budget
// and sends at most one combined alert per user.
func (o *Orchestrator) RunDaily(ctx context.Context) Report {
	return o.runBatch(ctx, JobDaily, o.dailyForUser)
}

// RunWeekly generates, stores and sends a weekly insight for every user with
// transactions in the last seven days.
func (o *Orchestrator) RunWeekly(ctx context.Context) Report {
	return o.runBatch(ctx, JobWeekly, o.weeklyForUser)
}

func (o *Orchestrator) runBatch(ctx context.Context, job string, fn func(ctx context.Context, userID string) Result) Report {
	log := o.deps.Logger.With().Str("job", job).Logger()
	ctx = logger.WithContext(ctx, log)

	report := Report{Job: job, StartedAt: o.opts.Now()}

	var userIDs []string
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		userIDs, err = o.deps.Store.ListUserIDs(ctx)
		return err
	})
	if err != nil {
		report.Err = fmt.Errorf("%s: list users: %w", job, err)
		report.Error = report.Err.Error()
		report.FinishedAt = o.opts.Now()
		log.Error().Err(err).Msg("Failed to list users")
		return report
	}

	results := make([]Result, len(userIDs))
	g := new(errgroup.Group)
	g.SetLimit(o.opts.Concurrency)
	for i, userID := range userIDs {
		g.Go(func() error {
			results[i] = o.runUser(ctx, userID, fn)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	report.FinishedAt = o.opts.Now()

	c := report.Counts()
	log.Info().
		Int("users", len(results)).
		Int("ok", c.OK).
		Int("skipped", c.Skipped).
		Int("failed", c.Failed).
		Int("notified", c.Notified).
		Dur("duration", report.Duration()).
		Msg("Batch finished")

	return report
}

// runUser isolates one user's processing: a panic or cancelled context
// becomes a failed result.
func (o *Orchestrator) runUser(ctx context.Context, userID string, fn func(ctx context.Context, userID string) Result) (res Result) {
	ctx = logger.WithUser(ctx, userID)
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			res = failed(userID, fmt.Errorf("panic: %v", r))
		}
		logResult(log, res)
	}()

	if err := ctx.Err(); err != nil {
		return failed(userID, err)
	}
	return fn(ctx, userID)
}

func logResult(log zerolog.Logger, res Result) {
	var ev *zerolog.Event
	switch res.Outcome {
	case OutcomeFailed:
		ev = log.Error().Err(res.Err)
	case OutcomeSkipped:
		ev = log.Info().Str("reason", res.Reason)
	default:
		ev = log.Info()
	}
	ev.Str("outcome", string(res.Outcome)).
		Bool("notified", res.Notified).
		Int("alerts", res.Alerts).
		Msg("User processed")
}

func (o *Orchestrator) dailyForUser(ctx context.Context, userID string) Result {
	var b *domain.Budget
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		b, err = store.FindBudget(ctx, o.deps.Store, userID)
		return err
	})
	if err != nil {
		return failed(userID, fmt.Errorf("load budget: %w", err))
	}
	if b == nil {
		return skipped(userID, ReasonNoBudget)
	}

	w := budget.MonthToDate(o.opts.Now())
	txs, err := o.queryWindow(ctx, userID, w, "")
	if err != nil {
		return failed(userID, err)
	}

	alerts := budget.BuildAlerts(budget.Aggregate(txs, w), b)
	res := ok(userID)
	res.Alerts = len(alerts)

	n, send, err := budget.BudgetNotification(alerts)
	if err != nil {
		return failed(userID, err)
	}
	if !send {
		return res
	}

	res.Notified, err = o.dispatch(ctx, userID, n)
	if err != nil {
		return failed(userID, err)
	}
	return res
}

func (o *Orchestrator) weeklyForUser(ctx context.Context, userID string) Result {
	now := o.opts.Now()
	txs, err := o.queryWindow(ctx, userID, budget.LastNDays(now, budget.WeeklyLookbackDays), "")
	if err != nil {
		return failed(userID, err)
	}
	if len(txs) == 0 {
		return skipped(userID, ReasonNoTransactions)
	}

	profile, err := o.findUser(ctx, userID)
	if err != nil {
		return failed(userID, err)
	}

	var wi insights.WeeklyInsight
	_ = o.call(ctx, func(ctx context.Context) error {
		wi = o.deps.Insights.WeeklyInsight(ctx, txs, profile)
		return nil
	})

	in := domain.Insight{
		ID:               uuid.New().String(),
		UserID:           userID,
		Type:             domain.InsightTypeWeekly,
		Summary:          wi.Summary,
		TotalSpent:       wi.TotalSpent,
		TransactionCount: wi.TransactionCount,
		TopCategories:    wi.TopCategories,
		Concerns:         []string{},
		CreatedAt:        now,
	}
	if err := o.call(ctx, func(ctx context.Context) error {
		return o.deps.Store.AddInsight(ctx, &in)
	}); err != nil {
		return failed(userID, fmt.Errorf("save insight: %w", err))
	}

	res := ok(userID)
	res.InsightID = in.ID

	if o.deps.Exporter != nil {
		if err := o.call(ctx, func(ctx context.Context) error {
			return o.deps.Exporter.ExportInsight(ctx, in)
		}); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("insight_id", in.ID).Msg("Failed to export insight")
		}
	}

	n := budget.Notification{
		Title: WeeklyNotificationTitle,
		Body:  wi.NotificationBody(),
		Data: map[string]string{
			"type":       budget.NotificationWeeklyInsights,
			"insight_id": in.ID,
		},
	}
	res.Notified, err = o.sendTo(ctx, profile, n)
	if err != nil {
		return failed(userID, err)
	}
	return res
}

// OnTransactionCreated re-checks only the transaction's category for the
// current month and sends a single-category alert when a threshold is met.
// Other categories are left to the next daily run.
func (o *Orchestrator) OnTransactionCreated(ctx context.Context, userID string, tx domain.Transaction) Result {
	log := o.deps.Logger.With().Str("job", JobTransaction).Str("transaction_id", tx.ID).Logger()
	ctx = logger.WithContext(ctx, log)

	return o.runUser(ctx, userID, func(ctx context.Context, userID string) Result {
		return o.checkCategory(ctx, userID, tx)
	})
}

// TriggerTransaction loads a stored transaction and runs OnTransactionCreated.
func (o *Orchestrator) TriggerTransaction(ctx context.Context, userID, transactionID string) Result {
	var tx *domain.Transaction
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		tx, err = o.deps.Store.GetTransaction(ctx, userID, transactionID)
		return err
	})
	if err != nil {
		log := o.deps.Logger.With().Str("job", JobTransaction).Str("user_id", userID).Str("transaction_id", transactionID).Logger()
		if errors.Is(err, domain.ErrNotFound) {
			log.Info().Msg("Transaction no longer exists")
			return skipped(userID, ReasonTransactionMissing)
		}
		log.Error().Err(err).Msg("Failed to load transaction")
		return failed(userID, fmt.Errorf("load transaction: %w", err))
	}
	return o.OnTransactionCreated(ctx, userID, *tx)
}

func (o *Orchestrator) checkCategory(ctx context.Context, userID string, tx domain.Transaction) Result {
	category := domain.NormalizeCategory(string(tx.Category))

	var b *domain.Budget
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		b, err = store.FindBudget(ctx, o.deps.Store, userID)
		return err
	})
	if err != nil {
		return failed(userID, fmt.Errorf("load budget: %w", err))
	}
	if b == nil {
		return skipped(userID, ReasonNoBudget)
	}

	limit, tracked := b.Limit(category)
	if !tracked {
		return skipped(userID, ReasonCategoryUntracked)
	}

	w := budget.CurrentMonth(o.opts.Now())
	txs, err := o.queryWindow(ctx, userID, w, category)
	if err != nil {
		return failed(userID, err)
	}

	res := ok(userID)
	alert, hit := budget.Classify(category, budget.AggregateCategory(txs, w, category), limit)
	if !hit {
		return res
	}
	res.Alerts = 1

	profile, err := o.findUser(ctx, userID)
	if err != nil {
		return failed(userID, err)
	}
	currency := domain.DefaultCurrency
	if profile != nil && profile.Currency != "" {
		currency = profile.Currency
	}

	res.Notified, err = o.sendTo(ctx, profile, budget.CategoryNotification(alert, currency))
	if err != nil {
		return failed(userID, err)
	}
	return res
}

func (o *Orchestrator) queryWindow(ctx context.Context, userID string, w budget.Window, category domain.Category) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		txs, err = o.deps.Store.QueryTransactions(ctx, userID, domain.TransactionFilter{
			Start:    w.Start,
			End:      w.End,
			Category: category,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return txs, nil
}

func (o *Orchestrator) findUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile *domain.UserProfile
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		profile, err = store.FindUser(ctx, o.deps.Store, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// dispatch looks up the user's token and sends n.
func (o *Orchestrator) dispatch(ctx context.Context, userID string, n budget.Notification) (bool, error) {
	profile, err := o.findUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return o.sendTo(ctx, profile, n)
}

func (o *Orchestrator) sendTo(ctx context.Context, profile *domain.UserProfile, n budget.Notification) (bool, error) {
	var sent bool
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		sent, err = notify.Dispatch(ctx, o.deps.Sender, profile, n)
		return err
	})
	return sent, err
}
