package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Message struct {
	ID    string // e.g. "1702000000000-0"
	Event ImageEvent
}

// Consumer reads a stream as a member of a consumer group.
type Consumer interface {
	// EnsureGroup creates the group, and the stream with it, if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns messages never delivered to any consumer of the group,
	// blocking up to block when there are none.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but never
	// acknowledged, e.g. because the process died mid-batch.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

type RedisConsumer struct {
	client *redis.Client
	logger *zap.Logger
}

func NewConsumer(client *redis.Client, logger *zap.Logger) *RedisConsumer {
	return &RedisConsumer{client: client, logger: logger.Named("consumer")}
}

// EnsureGroup runs XGROUP CREATE ... MKSTREAM starting at "0" so a fresh
// group also sees events published before it existed.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.logger.Info("consumer group created", zap.String("stream", stream), zap.String("group", group))
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	})
}

func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	})
}

func (c *RedisConsumer) read(ctx context.Context, args *redis.XReadGroupArgs) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseImageEvent(msg.Values)
			if err != nil {
				// Malformed entries are acked so they never come back.
				c.logger.Warn("dropping malformed message", zap.String("message_id", msg.ID), zap.Error(err))
				if ackErr := c.Ack(ctx, s.Stream, args.Group, msg.ID); ackErr != nil {
					c.logger.Warn("ack malformed message", zap.String("message_id", msg.ID), zap.Error(ackErr))
				}
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}
