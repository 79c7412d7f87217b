package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler consumes one decoded event. Returning an error leaves the message
// pending in the consumer group, so it is redelivered on restart.
type Handler func(ctx context.Context, event Event) error

// Subscriber drives one consumer-group reader over one stream. The service
// runs a single instance: the ledger projector feeding the per-account
// recent-transactions list from transaction.recorded events.
type Subscriber struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	handler  Handler
}

const (
	readBatchSize = 10
	readBlock     = 5 * time.Second
	readRetryWait = time.Second
)

func NewSubscriber(client *redis.Client, stream, group, consumer string, handler Handler) *Subscriber {
	return &Subscriber{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		handler:  handler,
	}
}

// Start reads until ctx is cancelled. The consumer group is created on first
// start and shared across restarts, so already-acked events are never replayed.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", s.group, s.stream, err)
	}

	log.Printf("Projection consumer %s/%s reading %s", s.group, s.consumer, s.stream)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Projection consumer %s stopping", s.consumer)
			return ctx.Err()
		default:
			if err := s.consumeBatch(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Failed to read %s: %v", s.stream, err)
				time.Sleep(readRetryWait)
			}
		}
	}
}

func (s *Subscriber) consumeBatch(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.apply(ctx, message); err != nil {
				// Not acked; the group redelivers it.
				log.Printf("Failed to apply event %s: %v", message.ID, err)
				continue
			}
			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				log.Printf("Failed to ack event %s: %v", message.ID, err)
			}
		}
	}
	return nil
}

func (s *Subscriber) apply(ctx context.Context, message redis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("event %s has no payload", message.ID)
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("failed to decode event %s: %w", message.ID, err)
	}
	return s.handler(ctx, event)
}
