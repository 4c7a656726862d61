package delivery

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
)

// Event is the envelope written to Redis channels. Gateways holding the websocket
// sessions subscribe and forward Payload to the Topic destination.
type Event struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	UserID      uint            `json:"user_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

type RedisRealtimePublisher struct {
	client redis.UniversalClient
	prefix string
	clock  clock.Clock
}

func NewRedisRealtimePublisher(client redis.UniversalClient, prefix string, clk clock.Clock) *RedisRealtimePublisher {
	if prefix == "" {
		prefix = "campus"
	}
	if clk == nil {
		clk = clock.New()
	}
	return &RedisRealtimePublisher{client: client, prefix: prefix, clock: clk}
}

func (p *RedisRealtimePublisher) UserChannel(userID uint) string {
	return fmt.Sprintf("%s:notify:user:%d", p.prefix, userID)
}

func (p *RedisRealtimePublisher) BroadcastChannel() string {
	return p.prefix + ":notify:broadcast"
}

func (p *RedisRealtimePublisher) PublishToUser(ctx context.Context, userID uint, topic string, payload []byte) (int64, error) {
	return p.publish(ctx, p.UserChannel(userID), Event{Topic: topic, UserID: userID, Payload: payload})
}

func (p *RedisRealtimePublisher) PublishBroadcast(ctx context.Context, topic string, payload []byte) (int64, error) {
	return p.publish(ctx, p.BroadcastChannel(), Event{Topic: topic, Payload: payload})
}

// publish returns the number of subscribers that received the event. Zero means no
// gateway currently holds a session for the channel.
func (p *RedisRealtimePublisher) publish(ctx context.Context, channel string, ev Event) (int64, error) {
	now := p.clock.Now()
	ev.ID = ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
	ev.PublishedAt = now
	body, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("encode realtime event: %w", err)
	}
	n, err := p.client.Publish(ctx, channel, body).Result()
	if err != nil {
		return 0, fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return n, nil
}
