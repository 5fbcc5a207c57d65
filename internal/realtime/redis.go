package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/expense-reporting/internal/notification"
)

// NewRedisClient parses the URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisPublisher fans notifications out to every instance through a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Push(ctx context.Context, userID int64, n notification.Response) error {
	data, err := json.Marshal(NewEnvelope(userID, n))
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// RedisSubscriber relays channel messages into the local hub.
type RedisSubscriber struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
}

func NewRedisSubscriber(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("redis subscriber started", "channel", s.channel)

	messages := sub.Channel()
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.relay(ctx, []byte(msg.Payload))
		case <-ctx.Done():
			s.logger.Info("redis subscriber stopped", "channel", s.channel)
			return nil
		}
	}
}

func (s *RedisSubscriber) relay(ctx context.Context, payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		s.logger.Warn("dropping malformed realtime message", "error", err)
		return
	}
	if err := s.hub.Deliver(ctx, env.UserID, payload); err != nil {
		s.logger.Warn("failed to relay realtime message", "user_id", env.UserID, "error", err)
	}
}
