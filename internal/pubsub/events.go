// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// AddedEvent announces a new entity (or a new log entry).
	AddedEvent EventType = "added"
	// ResolvedEvent announces that a pending reference was resolved.
	ResolvedEvent EventType = "resolved"
	// RemovedEvent announces that an entity was erased.
	RemovedEvent EventType = "removed"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
