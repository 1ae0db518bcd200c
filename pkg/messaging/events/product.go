package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/abgdnv/gocatalog/pkg/messaging"
)

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent is emitted after a catalog mutation took effect.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  int64     `json:"product_id"`
	Code       string    `json:"code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewProductEvent(eventType string, productID int64, code string) ProductEvent {
	return ProductEvent{
		Type:       eventType,
		ProductID:  productID,
		Code:       code,
		OccurredAt: time.Now().UTC(),
	}
}

func (e ProductEvent) Subject() string {
	return messaging.ProductSubjectPrefix + strings.TrimPrefix(e.Type, "product.")
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
