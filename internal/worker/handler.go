package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yatube/internal/metrics"
	"yatube/internal/queue"
)

// ImageDeleter removes stored image objects.
type ImageDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Handler processes events from the image stream.
type Handler struct {
	images ImageDeleter
	logger *zap.Logger
}

func NewHandler(images ImageDeleter, logger *zap.Logger) *Handler {
	return &Handler{images: images, logger: logger.Named("image_janitor")}
}

// HandleEvent routes an event by type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ImageEvent) (err error) {
	switch event.Type {
	case queue.EventImageDiscarded:
		err = h.handleImageDiscarded(ctx, event)
		metrics.ObserveImageCleanup(err)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
	return err
}

func (h *Handler) handleImageDiscarded(ctx context.Context, event queue.ImageEvent) error {
	if err := h.images.Delete(ctx, event.Key); err != nil {
		return fmt.Errorf("delete image %s: %w", event.Key, err)
	}
	h.logger.Debug("image deleted", zap.String("key", event.Key), zap.Int64("post_id", event.PostID))
	return nil
}
