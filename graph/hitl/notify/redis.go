package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// channelPrefix namespaces the Redis Pub/Sub channel this bridge uses so it
// does not collide with unrelated traffic on a shared Redis instance.
const channelPrefix = "wfgraph:hitl:"

// RedisBridge publishes Events to Redis Pub/Sub and relays Events received
// from other processes into a local Hub, making the Hub's broadcast scope
// span every process subscribed to the same Redis instance.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
	logger zerolog.Logger
}

// NewRedisBridge parses redisURL (a redis:// connection string) and wires
// a bridge that will relay a run's messages into hub once Subscribe is
// called for that run. The connection is not verified here.
func NewRedisBridge(redisURL string, hub *Hub, logger *zerolog.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &RedisBridge{client: redis.NewClient(opts), hub: hub, logger: l}, nil
}

// Publish serializes event and publishes it to the run's channel so every
// subscribed process (including this one's own Subscribe loop) observes it.
func (b *RedisBridge) Publish(event Event) {
	ctx := context.Background()
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Msg("marshaling hitl event")
		return
	}
	if err := b.client.Publish(ctx, channelPrefix+event.RunID, payload).Err(); err != nil {
		b.logger.Error().Err(err).Str("run_id", event.RunID).Msg("publishing hitl event to redis")
	}
}

// Subscribe starts listening for events on runID's channel and relays them
// into the local Hub until ctx is cancelled. Call it once per run a local
// dashboard client has subscribed to.
func (b *RedisBridge) Subscribe(ctx context.Context, runID string) error {
	pubsub := b.client.Subscribe(ctx, channelPrefix+runID)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Error().Err(err).Msg("unmarshaling hitl event")
					continue
				}
				b.hub.Publish(event)
			}
		}
	}()
	return nil
}

// Close releases the underlying Redis client.
func (b *RedisBridge) Close() error {
	return b.client.Close()
}
