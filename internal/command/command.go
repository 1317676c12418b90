// Package command holds the write side of the API: every operation that
// changes users, accounts or balances goes through one of these services.
package command

import (
	"context"
	"time"
)

// EventPublisher appends a domain event to a stream.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

func now() time.Time { return time.Now().UTC() }
