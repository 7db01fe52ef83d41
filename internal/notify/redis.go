package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisPingTimeout = 5 * time.Second

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(cfg Config) (*RedisPublisher, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			return nil, fmt.Errorf("pinging redis: %w (also failed to close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return newRedisPublisher(client, cfg.RedisStream), nil
}

func newRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = "frontdesk:events"
	}
	return &RedisPublisher{client: client, stream: stream}
}

// Publish implements Publisher. Each entry carries the event type and the
// JSON-encoded event.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type": string(e.Type),
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("appending to stream %s: %w", p.stream, err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
