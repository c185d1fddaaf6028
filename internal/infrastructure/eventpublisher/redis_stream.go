package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/mfsledger/internal/domain"
)

// DefaultStream is the Redis stream settlement events are appended to.
const DefaultStream = "mfsledger:events"

// RedisStreamPublisher appends events to a Redis stream with XADD.
// Consumers read it with consumer groups; the event id travels in the
// message so duplicates from a retried batch can be dropped downstream.
type RedisStreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher. maxLen caps the stream
// approximately; zero leaves it unbounded.
func NewRedisStreamPublisher(client redis.Cmdable, stream string, maxLen int64) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish implements Publisher.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":       event.ID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
			"payload":        string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
