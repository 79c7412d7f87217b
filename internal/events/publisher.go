package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher appends domain events to the service's Redis Streams. Streams are
// capped (approximate trim) so the account and ledger streams cannot grow
// without bound when no projector is draining them.
type Publisher struct {
	client *redis.Client
	maxLen int64
}

const streamMaxLen = 100_000

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, maxLen: streamMaxLen}
}

// Publish appends one event to the given stream. Callers treat failures as
// non-fatal: the write store has already committed, the projection catches up
// from the next event.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"event": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append %s to %s: %w", eventType, stream, err)
	}
	return nil
}
