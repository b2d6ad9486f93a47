package orchestrator

import (
	"time"
)

// Outcome is the per-user result of a batch step.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip reasons.
const (
	ReasonNoBudget           = "no budget"
	ReasonNoTransactions     = "no recent transactions"
	ReasonCategoryUntracked  = "category not budgeted"
	ReasonTransactionMissing = "transaction not found"
)

// Job names used in reports and logs.
const (
	JobDaily       = "daily_budget_check"
	JobWeekly      = "weekly_insights"
	JobTransaction = "transaction_created"
)

// Result is what happened to one user in one run.
type Result struct {
	UserID    string  `json:"user_id"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	Err       error   `json:"-"`
	Error     string  `json:"error,omitempty"`
	Notified  bool    `json:"notified"`
	Alerts    int     `json:"alerts"`
	InsightID string  `json:"insight_id,omitempty"`
}

func ok(userID string) Result {
	return Result{UserID: userID, Outcome: OutcomeOK}
}

func skipped(userID, reason string) Result {
	return Result{UserID: userID, Outcome: OutcomeSkipped, Reason: reason}
}

func failed(userID string, err error) Result {
	return Result{UserID: userID, Outcome: OutcomeFailed, Err: err, Error: err.Error()}
}

// Report collects the results of one batch run, in user id order.
type Report struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`

	// Err is set when the run could not start, e.g. listing users failed.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Counts tallies results by outcome.
type Counts struct {
	OK       int `json:"ok"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Notified int `json:"notified"`
}

// Counts tallies the report's results.
func (r Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeOK:
			c.OK++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeFailed:
			c.Failed++
		}
		if res.Notified {
			c.Notified++
		}
	}
	return c
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
