package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"Healthchecks/internal/backend/models"

	"github.com/redis/go-redis/v9"
)

type redisEventBus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewEventBus(client *redis.Client, channel string, logger *slog.Logger) EventBus {
	if logger == nil {
		logger = slog.Default()
	}

	return &redisEventBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (b *redisEventBus) Publish(ctx context.Context, event models.CheckEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	b.logger.Debug("check event published",
		"channel", b.channel,
		"type", event.Type,
		"check_id", event.CheckID,
	)

	return nil
}

// Subscribe returns once Redis has confirmed the subscription.
func (b *redisEventBus) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis SUBSCRIBE failed: %w", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan models.CheckEvent),
		done:   make(chan struct{}),
		logger: b.logger,
	}
	go sub.run()

	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	events    chan models.CheckEvent
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func (s *redisSubscription) Events() <-chan models.CheckEvent {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) run() {
	defer close(s.events)

	messages := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event models.CheckEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn("dropping malformed check event", "error", err, "payload", msg.Payload)
				continue
			}

			select {
			case s.events <- event:
			case <-s.done:
				return
			}
		}
	}
}
