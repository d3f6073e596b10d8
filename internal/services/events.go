package services

import (
	"context"
	"encoding/json"
	"time"
)

// CatalogEventsChannel is the broker channel catalog events are published to.
const CatalogEventsChannel = "catalog.products"

const (
	eventActionCreated = "created"
	eventActionUpdated = "updated"
	eventActionDeleted = "deleted"
)

// ProductEvent is the payload published after a catalog mutation. ImageURI
// holds the product's image reference at the time of the mutation; the
// worker uses it to clean up storage after deletions.
type ProductEvent struct {
	Action     string    `json:"action"`
	ProductID  int       `json:"product_id"`
	ImageURI   string    `json:"image_uri,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publishEvent emits a catalog event best-effort. Publish failures are
// logged and never surfaced to the API caller.
func (s *ProductService) publishEvent(ctx context.Context, action string, productID int, imageURI string) {
	if s.events == nil {
		return
	}

	event := ProductEvent{
		Action:     action,
		ProductID:  productID,
		ImageURI:   imageURI,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode catalog event", "action", action, "product_id", productID, "error", err)
		return
	}

	if _, err := s.events.Publish(ctx, CatalogEventsChannel, data, map[string]string{"action": action}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish catalog event", "action", action, "product_id", productID, "error", err)
	}
}
