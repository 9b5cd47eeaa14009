package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"waste-dispatch-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	historyLen = 100
	historyTTL = 7 * 24 * time.Hour
)

// RedisPublisher fans route events out on a pub/sub channel and keeps a short
// per-route history list for clients that connect late.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	prefix  string
	logger  *slog.Logger
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func NewRedisPublisher(client *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		prefix:  "dispatch:",
		logger:  logger.With("component", "redis_publisher"),
	}
}

func (p *RedisPublisher) historyKey(routeID int64) string {
	return p.prefix + "route:" + strconv.FormatInt(routeID, 10) + ":events"
}

func (p *RedisPublisher) Publish(ctx context.Context, events ...ports.RouteEvent) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()

	pipe := p.client.TxPipeline()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("publish route event %s: encode: %w", ev.ID, err)
		}
		key := p.historyKey(ev.RouteID)
		pipe.Publish(ctx, p.channel, payload)
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, historyLen-1)
		pipe.Expire(ctx, key, historyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Error("publish failed", "count", len(events), "error", err)
		return fmt.Errorf("publish route events: %w", err)
	}
	p.logger.Debug("published", "count", len(events), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// History returns the most recent events of a route, newest first.
func (p *RedisPublisher) History(ctx context.Context, routeID int64) ([]ports.RouteEvent, error) {
	raw, err := p.client.LRange(ctx, p.historyKey(routeID), 0, historyLen-1).Result()
	if err != nil {
		return nil, fmt.Errorf("route %d history: %w", routeID, err)
	}

	out := make([]ports.RouteEvent, 0, len(raw))
	for _, r := range raw {
		var ev ports.RouteEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, fmt.Errorf("route %d history: decode: %w", routeID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// NopPublisher drops every event. Used when Redis is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...ports.RouteEvent) error { return nil }
