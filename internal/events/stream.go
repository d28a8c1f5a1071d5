package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStream appends events to a capped Redis stream.
type RedisStream struct {
	Client redis.UniversalClient
	Stream string
	MaxLen int64
}

// Append implements EventStore.
func (s RedisStream) Append(ctx context.Context, event Event) error {
	args := &redis.XAddArgs{
		Stream: s.Stream,
		Values: map[string]any{
			"id":          event.ID,
			"topic":       event.Topic,
			"session_id":  event.SessionID,
			"payload":     string(event.Payload),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
		args.Approx = true
	}
	return s.Client.XAdd(ctx, args).Err()
}
