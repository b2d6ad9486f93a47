package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-insights/internal/amqp"
	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
)

// Sender delivers a notification to a device token.
type Sender interface {
	Send(ctx context.Context, token string, n budget.Notification) error
}

// Publisher is the subset of the AMQP client used for delivery.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Dispatch sends n to the profile's device token. A missing profile or an
// empty token is a silent no-op and reports false.
func Dispatch(ctx context.Context, s Sender, profile *domain.UserProfile, n budget.Notification) (bool, error) {
	if profile == nil || profile.FCMToken == "" {
		return false, nil
	}
	if err := s.Send(ctx, profile.FCMToken, n); err != nil {
		return false, fmt.Errorf("Dispatch: %w", err)
	}
	return true, nil
}

// AMQPSender hands notifications to the push delivery service through a queue.
type AMQPSender struct {
	pub   Publisher
	queue string
	now   func() time.Time
}

// NewAMQPSender creates a sender publishing to queue.
func NewAMQPSender(pub Publisher, queue string) *AMQPSender {
	return &AMQPSender{pub: pub, queue: queue, now: time.Now}
}

// Send implements Sender.
func (s *AMQPSender) Send(ctx context.Context, token string, n budget.Notification) error {
	body, err := json.Marshal(amqp.PushMessage{
		Token:     token,
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		Timestamp: s.now(),
	})
	if err != nil {
		return fmt.Errorf("AMQPSender.Send: marshal: %w", err)
	}
	if err := s.pub.Publish(ctx, s.queue, body); err != nil {
		return fmt.Errorf("AMQPSender.Send: %w", err)
	}
	return nil
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, token string, n budget.Notification) error {
	s.log.Info().
		Str("token_suffix", tokenSuffix(token)).
		Str("type", n.Data["type"]).
		Str("title", n.Title).
		Str("body", n.Body).
		Msg("Notification")
	return nil
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return "..." + token[len(token)-6:]
}

var (
	_ Sender    = (*AMQPSender)(nil)
	_ Sender    = (*LogSender)(nil)
	_ Publisher = (*amqp.Client)(nil)
)
