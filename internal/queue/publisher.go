package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher appends events to a stream.
type Publisher interface {
	// Publish returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event ImageEvent) (messageID string, err error)
}

type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger.Named("publisher")}
}

// Publish adds the event with XADD and an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ImageEvent) (string, error) {
	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
		zap.String("message_id", messageID),
		zap.String("key", event.Key),
	)
	return messageID, nil
}

// PublishImageDiscarded queues removal of an unreferenced image.
func (p *RedisPublisher) PublishImageDiscarded(ctx context.Context, key string, postID int64) (string, error) {
	return p.Publish(ctx, StreamImages, NewImageDiscardedEvent(key, postID))
}
