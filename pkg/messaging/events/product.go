// Package events contains the payloads published on product changes.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/gocatalog/pkg/messaging"
)

// ProductChangedEvent is emitted after the store confirmed a create, update or delete.
// Name, Price and Image are empty for deletions.
type ProductChangedEvent struct {
	Kind       string    `json:"kind"`
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name,omitempty"`
	Price      float64   `json:"price,omitempty"`
	Image      string    `json:"image,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

func (e ProductChangedEvent) Subject() string {
	switch e.Kind {
	case KindCreated:
		return messaging.ProductCreatedSubject
	case KindUpdated:
		return messaging.ProductUpdatedSubject
	default:
		return messaging.ProductDeletedSubject
	}
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
