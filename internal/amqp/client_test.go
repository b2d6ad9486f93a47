package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "closed", err: amqp091.ErrClosed, expected: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), expected: true},
		{name: "EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "channel closed", err: errors.New("Consume: message channel closed"), expected: true},
		{name: "other", err: errors.New("invalid input"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type recordingAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (r *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	r.acked++
	return nil
}

func (r *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	r.nacked++
	r.requeue = requeue
	return nil
}

func (r *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantAck     int
		wantNack    int
		wantRequeue bool
	}{
		{name: "success acks", handlerErr: nil, wantAck: 1},
		{name: "malformed drops", handlerErr: fmt.Errorf("decode: %w", ErrMalformed), wantNack: 1, wantRequeue: false},
		{name: "transient requeues", handlerErr: errors.New("store unavailable"), wantNack: 1, wantRequeue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			d := amqp091.Delivery{Acknowledger: ack, Body: []byte(`{}`)}

			var got []byte
			handleDelivery(context.Background(), d, func(ctx context.Context, body []byte) error {
				got = body
				return tt.handlerErr
			})

			if string(got) != `{}` {
				t.Errorf("handler body = %q", got)
			}
			if ack.acked != tt.wantAck || ack.nacked != tt.wantNack {
				t.Errorf("acked=%d nacked=%d, want %d/%d", ack.acked, ack.nacked, tt.wantAck, tt.wantNack)
			}
			if ack.requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", ack.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestTransactionCreatedMessage(t *testing.T) {
	msg := NewTransactionCreatedMessage("u1", "t1")
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := TransactionCreatedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TransactionCreatedMessageFromJSON() error = %v", err)
	}
	if parsed.UserID != "u1" || parsed.TransactionID != "t1" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestTransactionCreatedMessageFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `nope`},
		{name: "wrong type", data: `{"user_id": 5}`},
		{name: "missing transaction", data: `{"user_id": "u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransactionCreatedMessageFromJSON([]byte(tt.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestPublish_CancelledContext(t *testing.T) {
	c := &Client{exchangeName: "budget"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Publish(ctx, "q", []byte(`{}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
}
