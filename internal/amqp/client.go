package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/dvloznov/budget-insights/internal/logger"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// ErrMalformed marks a message that can never be processed. Handlers wrap it
// to have the delivery dropped instead of requeued.
var ErrMalformed = errors.New("malformed message")

// Handler processes one message body.
type Handler func(ctx context.Context, body []byte) error

// Client publishes to and consumes from queues bound to a single direct
// exchange. Each queue is bound with its own name as the routing key.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

// NewClient dials the broker and declares the exchange and queues.
func NewClient(url, exchangeName string, queues ...string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("NewClient: dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("NewClient: open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}

	if err := client.setup(queues); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewClient: setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup(queues []string) error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range queues {
		if _, err := c.channel.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := c.channel.QueueBind(q, q, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	return nil
}

// Publish sends a persistent JSON message routed to queue.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		queue,          // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("exchange", c.exchangeName).Str("queue", queue).Int("bytes", len(body)).Msg("Published message")
	return nil
}

// Consume delivers messages from queue to handler until ctx is cancelled or
// the channel closes. Messages are acked on success, dropped when the handler
// returns ErrMalformed and requeued on any other error.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	msgs, err := c.channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("Consume: start consuming: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("queue", queue).Msg("Started consuming")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("queue", queue).Msg("Stopping consumption")
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("Consume: message channel closed")
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	log := logger.FromContext(ctx)

	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Msg("Failed to ack message")
		}
	case errors.Is(err, ErrMalformed):
		log.Error().Err(err).Msg("Dropping malformed message")
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Msg("Failed to nack message")
		}
	default:
		log.Error().Err(err).Msg("Failed to handle message, requeueing")
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error().Err(nackErr).Msg("Failed to nack message")
		}
	}
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// ConsumeWithRetry keeps a consumer running across broker restarts. dial
// creates a fresh client for each attempt.
func ConsumeWithRetry(ctx context.Context, dial func() (*Client, error), queue string, handler Handler) error {
	log := logger.FromContext(ctx)

	for attempt := 0; ; attempt++ {
		client, err := dial()
		if err == nil {
			err = client.Consume(ctx, queue, handler)
			client.Close()
			attempt = 0
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		log.Warn().Err(err).Dur("retry_in", wait).Msg("AMQP connection lost, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "channel closed", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
