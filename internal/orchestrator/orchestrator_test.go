package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/notify"
	"github.com/dvloznov/budget-insights/internal/store"
	"github.com/dvloznov/budget-insights/internal/store/inmemory"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

type sentNotification struct {
	Token        string
	Notification budget.Notification
}

// RecordingSender keeps every notification it is asked to send.
type RecordingSender struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (r *RecordingSender) Send(ctx context.Context, token string, n budget.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentNotification{Token: token, Notification: n})
	return nil
}

func (r *RecordingSender) Sent() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, token string, n budget.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

type MockInsighter struct {
	WeeklyInsightFunc func(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile) insights.WeeklyInsight
}

func (m *MockInsighter) WeeklyInsight(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile) insights.WeeklyInsight {
	return m.WeeklyInsightFunc(ctx, txs, profile)
}

type MockExporter struct {
	ExportInsightFunc func(ctx context.Context, in domain.Insight) error
}

func (m *MockExporter) ExportInsight(ctx context.Context, in domain.Insight) error {
	return m.ExportInsightFunc(ctx, in)
}

type failingStore struct {
	*inmemory.Store
	listErr       error
	failBudgetFor string
}

func (f *failingStore) ListUserIDs(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListUserIDs(ctx)
}

func (f *failingStore) GetBudget(ctx context.Context, userID string) (*domain.Budget, error) {
	if userID == f.failBudgetFor {
		return nil, errors.New("connection reset")
	}
	return f.Store.GetBudget(ctx, userID)
}

func seedUser(t *testing.T, s *inmemory.Store, id, token string, limits map[domain.Category]float64, txs ...domain.Transaction) {
	t.Helper()
	ctx := context.Background()
	if err := s.SaveUser(ctx, &domain.UserProfile{ID: id, FCMToken: token, Currency: "USD", CreatedAt: testNow}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if limits != nil {
		if err := s.SaveBudget(ctx, &domain.Budget{UserID: id, Categories: limits, CreatedAt: testNow, UpdatedAt: testNow}); err != nil {
			t.Fatalf("SaveBudget: %v", err)
		}
	}
	for i := range txs {
		txs[i].UserID = id
		if txs[i].Type == "" {
			txs[i].Type = domain.TransactionTypeExpense
		}
		if err := s.AddTransaction(ctx, &txs[i]); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
}

func expense(id string, c domain.Category, amount float64, day int) domain.Transaction {
	return domain.Transaction{
		ID:       id,
		Category: c,
		Amount:   amount,
		Type:     domain.TransactionTypeExpense,
		Date:     time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC),
	}
}

func newTestOrchestrator(s store.Store, sender notify.Sender, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return New(Deps{Store: s, Sender: sender, Logger: zerolog.Nop()}, opts)
}

func seedDaily(t *testing.T, s *inmemory.Store) {
	seedUser(t, s, "u-critical", "tok-crit",
		map[domain.Category]float64{domain.CategoryFood: 100, domain.CategoryShopping: 200},
		expense("c1", domain.CategoryFood, 120, 5),
		expense("c2", domain.CategoryShopping, 170, 6),
		domain.Transaction{ID: "c3", Category: domain.CategoryFood, Amount: 999, Date: time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC)},
	)
	seedUser(t, s, "u-nobudget", "tok-nb", nil, expense("n1", domain.CategoryFood, 500, 5))
	seedUser(t, s, "u-notoken", "",
		map[domain.Category]float64{domain.CategoryFood: 10},
		expense("t1", domain.CategoryFood, 50, 5),
	)
	seedUser(t, s, "u-under", "tok-under",
		map[domain.Category]float64{domain.CategoryFood: 1000},
		expense("d1", domain.CategoryFood, 50, 5),
	)
}

func TestRunDaily(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		s := inmemory.NewStore()
		seedDaily(t, s)
		sender := &RecordingSender{}
		o := newTestOrchestrator(s, sender, Options{Concurrency: concurrency})

		report := o.RunDaily(context.Background())
		if report.Err != nil {
			t.Fatalf("RunDaily() error = %v", report.Err)
		}

		want := []struct {
			userID   string
			outcome  Outcome
			alerts   int
			notified bool
		}{
			{"u-critical", OutcomeOK, 2, true},
			{"u-nobudget", OutcomeSkipped, 0, false},
			{"u-notoken", OutcomeOK, 1, false},
			{"u-under", OutcomeOK, 0, false},
		}
		if len(report.Results) != len(want) {
			t.Fatalf("concurrency %d: got %d results, want %d", concurrency, len(report.Results), len(want))
		}
		for i, w := range want {
			got := report.Results[i]
			if got.UserID != w.userID || got.Outcome != w.outcome || got.Alerts != w.alerts || got.Notified != w.notified {
				t.Errorf("concurrency %d: result[%d] = %+v, want %+v", concurrency, i, got, w)
			}
		}
		if report.Results[1].Reason != ReasonNoBudget {
			t.Errorf("skip reason = %q, want %q", report.Results[1].Reason, ReasonNoBudget)
		}

		sent := sender.Sent()
		if len(sent) != 1 {
			t.Fatalf("sent %d notifications, want 1", len(sent))
		}
		n := sent[0]
		if n.Token != "tok-crit" || n.Notification.Title != "🚨 Critical Budget Alert" {
			t.Errorf("notification = %+v", n)
		}
		if n.Notification.Body != "You've exceeded your budget in 1 category!" {
			t.Errorf("body = %q", n.Notification.Body)
		}
		if n.Notification.Data["type"] != budget.NotificationBudgetAlert {
			t.Errorf("data type = %q", n.Notification.Data["type"])
		}

		c := report.Counts()
		if c.OK != 3 || c.Skipped != 1 || c.Failed != 0 || c.Notified != 1 {
			t.Errorf("Counts() = %+v", c)
		}
	}
}

func TestRunDaily_OnlyCountsMonthToDate(t *testing.T) {
	s := inmemory.NewStore()
	seedUser(t, s, "u1", "tok",
		map[domain.Category]float64{domain.CategoryFood: 100},
		expense("past", domain.CategoryFood, 50, 5),
		expense("future", domain.CategoryFood, 60, 25),
	)
	sender := &RecordingSender{}

	report := newTestOrchestrator(s, sender, Options{}).RunDaily(context.Background())

	if len(report.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(report.Results))
	}
	if got := report.Results[0]; got.Outcome != OutcomeOK || got.Alerts != 0 || got.Notified {
		t.Errorf("result = %+v, entries dated after now should not count", got)
	}
	if len(sender.Sent()) != 0 {
		t.Errorf("sent %d notifications, want 0", len(sender.Sent()))
	}
}

func TestRunDaily_FailureIsolation(t *testing.T) {
	s := inmemory.NewStore()
	seedDaily(t, s)
	fs := &failingStore{Store: s, failBudgetFor: "u-critical"}
	sender := &RecordingSender{}
	o := newTestOrchestrator(fs, sender, Options{})

	report := o.RunDaily(context.Background())

	if report.Results[0].Outcome != OutcomeFailed || report.Results[0].Err == nil {
		t.Errorf("failing user result = %+v", report.Results[0])
	}
	if !strings.Contains(report.Results[0].Error, "connection reset") {
		t.Errorf("Error = %q", report.Results[0].Error)
	}
	c := report.Counts()
	if c.Failed != 1 || c.OK != 2 || c.Skipped != 1 {
		t.Errorf("Counts() = %+v", c)
	}
}

func TestRunDaily_ListUsersFails(t *testing.T) {
	fs := &failingStore{Store: inmemory.NewStore(), listErr: errors.New("unavailable")}
	report := newTestOrchestrator(fs, &RecordingSender{}, Options{}).RunDaily(context.Background())

	if report.Err == nil || report.Error == "" {
		t.Fatal("expected report error")
	}
	if len(report.Results) != 0 {
		t.Errorf("Results = %v, want none", report.Results)
	}
}

func TestRunDaily_CallTimeout(t *testing.T) {
	s := inmemory.NewStore()
	seedDaily(t, s)
	o := newTestOrchestrator(s, blockingSender{}, Options{CallTimeout: 20 * time.Millisecond})

	report := o.RunDaily(context.Background())

	res := report.Results[0]
	if res.Outcome != OutcomeFailed || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("u-critical result = %+v, want deadline failure", res)
	}
	// Users that never reach the sender are unaffected.
	if report.Results[3].Outcome != OutcomeOK {
		t.Errorf("u-under result = %+v", report.Results[3])
	}
}

func TestRunDaily_CancelledContext(t *testing.T) {
	s := inmemory.NewStore()
	seedDaily(t, s)
	o := newTestOrchestrator(s, &RecordingSender{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := o.RunDaily(ctx)

	// Listing users already fails under a cancelled context.
	if report.Err == nil && report.Counts().Failed != len(report.Results) {
		t.Errorf("report = %+v, want every user failed", report)
	}
}

func TestRunWeekly(t *testing.T) {
	long := strings.Repeat("é", 150)

	tests := []struct {
		name      string
		exportErr error
	}{
		{name: "export succeeds"},
		{name: "export failure is not fatal", exportErr: errors.New("notion down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := inmemory.NewStore()
			seedUser(t, s, "u1", "tok-1", nil,
				expense("a", domain.CategoryFood, 40, 18),
				expense("b", domain.CategoryShopping, 60, 19),
			)
			seedUser(t, s, "u2", "tok-2", nil, expense("c", domain.CategoryFood, 10, 1))

			var gotTxs int
			ins := &MockInsighter{WeeklyInsightFunc: func(ctx context.Context, txs []domain.Transaction, p *domain.UserProfile) insights.WeeklyInsight {
				gotTxs = len(txs)
				if p == nil || p.ID != "u1" {
					t.Errorf("profile = %+v", p)
				}
				return insights.WeeklyInsight{
					Summary:          long,
					TotalSpent:       100,
					TransactionCount: 2,
					TopCategories:    []domain.Category{domain.CategoryShopping, domain.CategoryFood},
				}
			}}
			var exported []domain.Insight
			exp := &MockExporter{ExportInsightFunc: func(ctx context.Context, in domain.Insight) error {
				exported = append(exported, in)
				return tt.exportErr
			}}

			sender := &RecordingSender{}
			o := New(Deps{Store: s, Sender: sender, Insights: ins, Exporter: exp, Logger: zerolog.Nop()},
				Options{Now: func() time.Time { return testNow }})

			report := o.RunWeekly(context.Background())

			if len(report.Results) != 2 {
				t.Fatalf("got %d results", len(report.Results))
			}
			r1, r2 := report.Results[0], report.Results[1]
			if r1.Outcome != OutcomeOK || !r1.Notified || r1.InsightID == "" {
				t.Errorf("u1 result = %+v", r1)
			}
			if r2.Outcome != OutcomeSkipped || r2.Reason != ReasonNoTransactions {
				t.Errorf("u2 result = %+v", r2)
			}
			if gotTxs != 2 {
				t.Errorf("insighter got %d transactions, want 2", gotTxs)
			}

			stored, err := s.ListInsights(context.Background(), "u1", 0)
			if err != nil || len(stored) != 1 {
				t.Fatalf("ListInsights() = %v, %v", stored, err)
			}
			if stored[0].Summary != long || stored[0].Type != domain.InsightTypeWeekly || !stored[0].CreatedAt.Equal(testNow) {
				t.Errorf("stored insight = %+v", stored[0])
			}
			if len(exported) != 1 || exported[0].ID != r1.InsightID {
				t.Errorf("exported = %+v", exported)
			}

			sent := sender.Sent()
			if len(sent) != 1 {
				t.Fatalf("sent %d notifications, want 1", len(sent))
			}
			n := sent[0].Notification
			if n.Title != WeeklyNotificationTitle || n.Data["type"] != budget.NotificationWeeklyInsights {
				t.Errorf("notification = %+v", n)
			}
			if utf8.RuneCountInString(n.Body) != 103 || !strings.HasSuffix(n.Body, "...") {
				t.Errorf("body has %d runes: %q", utf8.RuneCountInString(n.Body), n.Body)
			}
		})
	}
}

func TestRunWeekly_PanicIsolated(t *testing.T) {
	s := inmemory.NewStore()
	seedUser(t, s, "u1", "tok", nil, expense("a", domain.CategoryFood, 40, 18))
	seedUser(t, s, "u2", "tok", nil, expense("b", domain.CategoryFood, 40, 18))

	ins := &MockInsighter{WeeklyInsightFunc: func(ctx context.Context, txs []domain.Transaction, p *domain.UserProfile) insights.WeeklyInsight {
		if p.ID == "u1" {
			panic("boom")
		}
		return insights.WeeklyInsight{Summary: "fine"}
	}}
	sender := &RecordingSender{}
	o := New(Deps{Store: s, Sender: sender, Insights: ins, Logger: zerolog.Nop()},
		Options{Now: func() time.Time { return testNow }})

	report := o.RunWeekly(context.Background())

	if report.Results[0].Outcome != OutcomeFailed || !strings.Contains(report.Results[0].Error, "boom") {
		t.Errorf("u1 result = %+v", report.Results[0])
	}
	if report.Results[1].Outcome != OutcomeOK {
		t.Errorf("u2 result = %+v", report.Results[1])
	}
}

func TestOnTransactionCreated(t *testing.T) {
	tests := []struct {
		name       string
		limits     map[domain.Category]float64
		token      string
		tx         domain.Transaction
		wantResult Result
		wantTitle  string
		wantBody   string
	}{
		{
			name:       "no budget",
			tx:         expense("new", domain.CategoryFood, 10, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeSkipped, Reason: ReasonNoBudget},
		},
		{
			name:       "category not budgeted",
			limits:     map[domain.Category]float64{domain.CategoryFood: 100},
			tx:         expense("new", domain.CategoryShopping, 500, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeSkipped, Reason: ReasonCategoryUntracked},
		},
		{
			name:       "zero limit is untracked",
			limits:     map[domain.Category]float64{domain.CategoryFood: 0},
			tx:         expense("new", domain.CategoryFood, 500, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeSkipped, Reason: ReasonCategoryUntracked},
		},
		{
			name:       "under threshold",
			limits:     map[domain.Category]float64{domain.CategoryFood: 1000},
			token:      "tok",
			tx:         expense("new", domain.CategoryFood, 10, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeOK},
		},
		{
			name:       "warning",
			limits:     map[domain.Category]float64{domain.CategoryFood: 100},
			token:      "tok",
			tx:         expense("new", domain.CategoryFood, 35, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeOK, Alerts: 1, Notified: true},
			wantTitle:  "⚠️ Budget Alert: Food & Groceries",
			wantBody:   "You've used 85% of your Food & Groceries budget ($85.00 of $100.00)",
		},
		{
			name:       "critical",
			limits:     map[domain.Category]float64{domain.CategoryFood: 100},
			token:      "tok",
			tx:         expense("new", domain.CategoryFood, 60, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeOK, Alerts: 1, Notified: true},
			wantTitle:  "🚨 Budget Exceeded: Food & Groceries",
			wantBody:   "You've used 110% of your Food & Groceries budget ($110.00 of $100.00)",
		},
		{
			name:       "blank category counts as other",
			limits:     map[domain.Category]float64{domain.CategoryOther: 50},
			token:      "tok",
			tx:         expense("new", "", 45, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeOK, Alerts: 1, Notified: true},
			wantTitle:  "⚠️ Budget Alert: Other",
			wantBody:   "You've used 90% of your Other budget ($45.00 of $50.00)",
		},
		{
			name:       "missing token is a silent no-op",
			limits:     map[domain.Category]float64{domain.CategoryFood: 100},
			tx:         expense("new", domain.CategoryFood, 60, 19),
			wantResult: Result{UserID: "u1", Outcome: OutcomeOK, Alerts: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := inmemory.NewStore()
			// Existing spend this month: 50 on food, plus a big shopping
			// entry that must never be looked at.
			seedUser(t, s, "u1", tt.token, tt.limits,
				expense("old", domain.CategoryFood, 50, 3),
				expense("shop", domain.CategoryShopping, 10000, 4),
				tt.tx,
			)

			sender := &RecordingSender{}
			o := newTestOrchestrator(s, sender, Options{})
			got := o.OnTransactionCreated(context.Background(), "u1", tt.tx)

			if got.UserID != tt.wantResult.UserID || got.Outcome != tt.wantResult.Outcome ||
				got.Reason != tt.wantResult.Reason || got.Alerts != tt.wantResult.Alerts || got.Notified != tt.wantResult.Notified {
				t.Errorf("OnTransactionCreated() = %+v, want %+v", got, tt.wantResult)
			}

			sent := sender.Sent()
			if tt.wantTitle == "" {
				if len(sent) != 0 {
					t.Errorf("sent = %+v, want none", sent)
				}
				return
			}
			if len(sent) != 1 {
				t.Fatalf("sent %d notifications, want 1", len(sent))
			}
			if sent[0].Notification.Title != tt.wantTitle || sent[0].Notification.Body != tt.wantBody {
				t.Errorf("notification = %+v", sent[0].Notification)
			}
			if sent[0].Notification.Data["type"] != budget.NotificationCategoryAlert {
				t.Errorf("data = %v", sent[0].Notification.Data)
			}
		})
	}
}

func TestTriggerTransaction(t *testing.T) {
	s := inmemory.NewStore()
	seedUser(t, s, "u1", "tok", map[domain.Category]float64{domain.CategoryFood: 100},
		expense("t1", domain.CategoryFood, 95, 10))
	sender := &RecordingSender{}
	o := newTestOrchestrator(s, sender, Options{})

	res := o.TriggerTransaction(context.Background(), "u1", "t1")
	if res.Outcome != OutcomeOK || !res.Notified {
		t.Errorf("TriggerTransaction() = %+v", res)
	}

	res = o.TriggerTransaction(context.Background(), "u1", "gone")
	if res.Outcome != OutcomeSkipped || res.Reason != ReasonTransactionMissing {
		t.Errorf("TriggerTransaction(gone) = %+v", res)
	}
}

func TestOnTransactionCreated_SendFailure(t *testing.T) {
	s := inmemory.NewStore()
	tx := expense("t1", domain.CategoryFood, 150, 10)
	seedUser(t, s, "u1", "tok", map[domain.Category]float64{domain.CategoryFood: 100}, tx)
	sender := &RecordingSender{err: errors.New("broker unavailable")}

	res := newTestOrchestrator(s, sender, Options{}).OnTransactionCreated(context.Background(), "u1", tx)
	if res.Outcome != OutcomeFailed || res.Notified {
		t.Errorf("result = %+v, want failed", res)
	}
}
