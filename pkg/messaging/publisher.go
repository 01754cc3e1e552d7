// Package messaging defines the event publishing contract used by the catalog service.
package messaging

import (
	"context"
)

const (
	ProductsSubjectPrefix = "products"
	ProductCreatedSubject = ProductsSubjectPrefix + ".created"
	ProductUpdatedSubject = ProductsSubjectPrefix + ".updated"
	ProductDeletedSubject = ProductsSubjectPrefix + ".deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
