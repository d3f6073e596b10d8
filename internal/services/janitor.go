package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/eshop-api/products/internal/mq"
)

// EventSubscriber consumes catalog events from a message broker.
type EventSubscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// ImageJanitor removes product images from object storage once the owning
// product has been deleted from the catalog. It runs out of process from
// the API server, driven by the catalog events channel.
type ImageJanitor struct {
	images ImageStore
	events EventSubscriber
	logger *slog.Logger
}

func NewImageJanitor(images ImageStore, events EventSubscriber, logger *slog.Logger) *ImageJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageJanitor{
		images: images,
		events: events,
		logger: logger,
	}
}

// Run consumes catalog events until ctx is done.
func (j *ImageJanitor) Run(ctx context.Context) error {
	return j.events.Subscribe(ctx, CatalogEventsChannel, j.handle)
}

func (j *ImageJanitor) handle(ctx context.Context, msg mq.Message) error {
	var event ProductEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Malformed payloads are acked; redelivery cannot fix them.
		j.logger.WarnContext(ctx, "discarding malformed catalog event", "message_id", msg.ID, "error", err)
		return nil
	}

	if event.Action != eventActionDeleted || event.ImageURI == "" {
		return nil
	}

	key, ok := objectKey(j.images.Bucket(), event.ImageURI)
	if !ok {
		return nil
	}

	// Returning the error nacks the message for redelivery.
	if err := j.images.Delete(ctx, key); err != nil {
		return err
	}

	j.logger.InfoContext(ctx, "removed image of deleted product", "product_id", event.ProductID, "key", key)
	return nil
}
