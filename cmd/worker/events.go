package main

import (
	"context"

	"github.com/dvloznov/budget-insights/internal/amqp"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/orchestrator"
)

type transactionTrigger interface {
	TriggerTransaction(ctx context.Context, userID, transactionID string) orchestrator.Result
}

// transactionEventHandler runs the per-transaction check for each event.
// Failed checks are requeued; skipped ones are acknowledged.
func transactionEventHandler(t transactionTrigger) amqp.Handler {
	return func(ctx context.Context, body []byte) error {
		msg, err := amqp.TransactionCreatedMessageFromJSON(body)
		if err != nil {
			return err
		}

		ctx = logger.WithUser(ctx, msg.UserID)
		log := logger.FromContext(ctx)

		res := t.TriggerTransaction(ctx, msg.UserID, msg.TransactionID)
		if res.Outcome == orchestrator.OutcomeFailed {
			return res.Err
		}

		log.Info().
			Str("transaction_id", msg.TransactionID).
			Str("outcome", string(res.Outcome)).
			Str("reason", res.Reason).
			Bool("notified", res.Notified).
			Msg("Transaction event processed")
		return nil
	}
}
