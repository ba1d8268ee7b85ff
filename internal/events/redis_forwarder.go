package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Publisher sends a raw message on a named channel. persistence.Redis
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisForwarder relays every event as JSON onto a pub/sub channel.
type RedisForwarder struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// NewRedisForwarder creates a forwarder publishing on channel.
func NewRedisForwarder(publisher Publisher, channel string, logger *zap.Logger) *RedisForwarder {
	return &RedisForwarder{publisher: publisher, channel: channel, logger: logger}
}

// Register subscribes the forwarder to every event type.
func (f *RedisForwarder) Register(d Dispatcher) {
	if f == nil || f.publisher == nil || d == nil {
		return
	}
	for _, t := range AllEventTypes {
		d.Subscribe(t, f.Forward)
	}
}

// Forward publishes one event.
func (f *RedisForwarder) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", event.Type, err)
	}
	if err := f.publisher.Publish(ctx, f.channel, body); err != nil {
		f.logger.Warn("event forward failed",
			zap.String("event_type", string(event.Type)),
			zap.String("channel", f.channel),
			zap.Error(err))
		return err
	}
	return nil
}
