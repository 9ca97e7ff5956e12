package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge relays events between processes sharing one store.
// Local events are published to a Redis channel; events read from the
// channel that came from other processes are re-published locally.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	local      Dispatcher
	instanceID string
	logger     *zap.Logger
}

// NewRedisBridge builds a bridge with a fresh instance id.
func NewRedisBridge(client *redis.Client, channel string, local Dispatcher, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		client:     client,
		channel:    channel,
		local:      local,
		instanceID: uuid.NewString(),
		logger:     logger.With(zap.String("component", "redis_bridge")),
	}
}

// InstanceID identifies this process on the channel.
func (b *RedisBridge) InstanceID() string {
	return b.instanceID
}

// Forward publishes locally produced events of the given types to Redis.
func (b *RedisBridge) Forward(types []EventType) func() {
	return SubscribeMany(b.local, types, b.forward)
}

func (b *RedisBridge) forward(ctx context.Context, event Event) error {
	if event.Origin != "" {
		return nil
	}
	event.Origin = b.instanceID
	data, err := Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

// Run consumes the channel until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("listening for remote events", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(ctx context.Context, payload string) {
	event, err := Unmarshal([]byte(payload))
	if err != nil {
		b.logger.Warn("drop malformed event", zap.Error(err))
		return
	}
	if event.Origin == "" || event.Origin == b.instanceID {
		return
	}
	if err := b.local.Publish(ctx, event); err != nil {
		b.logger.Warn("remote event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("incident_id", event.IncidentID),
			zap.Error(err))
	}
}
