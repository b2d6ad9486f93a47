package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransactionCreatedMessage announces a newly recorded transaction. The
// consumer loads the transaction itself from the store.
type TransactionCreatedMessage struct {
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionCreatedMessage stamps a message with the current time.
func NewTransactionCreatedMessage(userID, transactionID string) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes and validates a message. Decode
// failures wrap ErrMalformed.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.UserID == "" || msg.TransactionID == "" {
		return nil, fmt.Errorf("%w: user_id and transaction_id are required", ErrMalformed)
	}
	return &msg, nil
}

// PushMessage is a push notification handed to the delivery service.
type PushMessage struct {
	Token     string            `json:"token"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
