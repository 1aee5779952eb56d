package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

const channelPrefix = "convobase.realtime."

// RedisPublisher publishes room events over Redis pub/sub. The gateway
// process subscribes to the per-organization channels and fans out to
// connected websocket clients.
type RedisPublisher struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisPublisher creates a publisher over an existing Redis client.
func NewRedisPublisher(client redis.UniversalClient, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		logger: logger.With("module", "realtime_publisher"),
	}
}

// NewRedisPublisherFromURL dials Redis from a connection URL.
func NewRedisPublisherFromURL(url string, logger *slog.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return NewRedisPublisher(redis.NewClient(opts), logger), nil
}

type envelope struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (p *RedisPublisher) Publish(ctx context.Context, room, event string, payload map[string]any) error {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode realtime event: %w", err)
	}

	if err := p.client.Publish(ctx, channelPrefix+room, data).Err(); err != nil {
		return fmt.Errorf("failed to publish realtime event: %w", err)
	}

	p.logger.Debug("Published realtime event", "room", room, "event", event)

	return nil
}

// Close releases the underlying Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
