package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/money"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"

	TransactionCreated = "transaction.created"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// Base event structure
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ErrMalformedEvent marks a stream entry that can never be handled, however
// often it is redelivered.
var ErrMalformedEvent = errors.New("malformed event")

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s payload: %w", ErrMalformedEvent, e.Type, err)
	}
	return nil
}

// User events
type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserDeletedEvent struct {
	UserID string `json:"userId"`
}

// Account events
type AccountCreatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	AccountType   string `json:"accountType"`
}

type AccountUpdatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
}

type AccountDeletedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

// Transaction events
type TransactionCreatedEvent struct {
	TransactionID string       `json:"transactionId"`
	AccountNumber string       `json:"accountNumber"`
	UserID        string       `json:"userId"`
	Amount        money.Amount `json:"amount"`
	Type          string       `json:"type"`
	Currency      string       `json:"currency"`
}

// BalanceUpdatedEvent is published after a posting commits. Change is signed.
type BalanceUpdatedEvent struct {
	AccountNumber string       `json:"accountNumber"`
	TransactionID string       `json:"transactionId"`
	NewBalance    money.Amount `json:"newBalance"`
	Change        money.Amount `json:"change"`
}
