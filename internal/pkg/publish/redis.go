package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
)

// RedisSink appends every event to a Redis stream for external consumers.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
	pub    *Publisher
}

// NewRedisSink connects to redis and verifies the connection with a ping.
func NewRedisSink(cfg config.RedisConfig, pub *Publisher) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSink{
		client: client,
		stream: cfg.Stream,
		maxLen: cfg.MaxLen,
		pub:    pub,
	}, nil
}

// Run consumes events until the context ends.
func (r *RedisSink) Run(ctx context.Context) {
	id, ch := r.pub.Subscribe("redis")
	defer r.pub.Unsubscribe(id)

	slog.Info("redis sink: started", "stream", r.stream)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("redis sink: encode failed", "error", err)
				continue
			}
			err = r.client.XAdd(ctx, &redis.XAddArgs{
				Stream: r.stream,
				MaxLen: r.maxLen,
				Approx: true,
				Values: map[string]any{"data": data},
			}).Err()
			if err != nil {
				slog.Error("redis sink: xadd failed", "stream", r.stream, "error", err)
			}
		}
	}
}

// Close releases the redis connection.
func (r *RedisSink) Close() error {
	return r.client.Close()
}
