package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/pkg/logger"
)

// Client caches orchestrator replies so repeated questions skip the provider
// chain (and the quota spend) entirely.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetReply(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("reply:%s", key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set reply cache: %w", err)
	}

	logger.Debug("Reply cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetReply(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("reply:%s", key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get reply cache: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal reply: %w", err)
	}

	logger.Debug("Reply cache hit", zap.String("key", key))
	return true, nil
}

// Invalidate drops every cached reply, for use when the persona content or
// provider stack changes.
func (c *Client) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "reply:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Reply cache invalidated")
	return nil
}
