package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types on the image stream.
const (
	EventImageDiscarded = "image_discarded"
)

const (
	StreamImages        = "yatube:stream:images"
	ConsumerGroupImages = "image_janitors"
)

// ImageEvent asks the workers to remove a stored post image that no post
// references any more.
type ImageEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Key       string `json:"key"`
	PostID    int64  `json:"post_id,omitempty"`
}

// NewImageDiscardedEvent is published after a post stops referencing key.
// postID is 0 when the post was never stored.
func NewImageDiscardedEvent(key string, postID int64) ImageEvent {
	return ImageEvent{
		Type:      EventImageDiscarded,
		Timestamp: time.Now().Unix(),
		Key:       key,
		PostID:    postID,
	}
}

// ToMap converts the event to XADD field-value pairs. The payload travels as
// JSON in the "data" field.
func (e ImageEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseImageEvent parses an ImageEvent from stream message values.
func ParseImageEvent(values map[string]interface{}) (ImageEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ImageEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ImageEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ImageEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Key == "" {
		return ImageEvent{}, fmt.Errorf("event without image key")
	}
	return event, nil
}
