package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberApplyDecodesEvent(t *testing.T) {
	var seen Event
	sub := NewSubscriber(nil, TransactionEventsStream, "account-service", "ledger-projector-1",
		func(_ context.Context, event Event) error {
			seen = event
			return nil
		})

	payload, err := json.Marshal(Event{
		Type:      TransactionRecorded,
		Timestamp: time.Now().UTC(),
		Data: TransactionRecordedEvent{
			TransactionID:   "5f2c1a9e04bd4c3e8a1d6b7f90e3c254",
			AccountNumber:   "1000000000",
			Type:            "USE",
			Result:          "SUCCESS",
			Amount:          600,
			BalanceSnapshot: 400,
		},
	})
	require.NoError(t, err)

	err = sub.apply(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]any{"event": string(payload)},
	})
	require.NoError(t, err)
	assert.Equal(t, TransactionRecorded, seen.Type)
}

func TestSubscriberApplyRejectsMalformedMessages(t *testing.T) {
	handled := false
	sub := NewSubscriber(nil, TransactionEventsStream, "account-service", "ledger-projector-1",
		func(context.Context, Event) error {
			handled = true
			return nil
		})

	// Missing payload field.
	err := sub.apply(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{}})
	assert.Error(t, err)

	// Payload that is not JSON.
	err = sub.apply(context.Background(), redis.XMessage{
		ID:     "2-0",
		Values: map[string]any{"event": "{not json"},
	})
	assert.Error(t, err)

	assert.False(t, handled)
}
