package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves as an always-empty cache.
type Client struct {
	client *redis.Client
}

// New wraps an existing Redis client so sessions and the catalog cache share one pool.
func New(rdb *redis.Client) *Client {
	if rdb == nil {
		return nil
	}
	return &Client{client: rdb}
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("cache get failed")
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("cache set failed")
	}
	return nil
}

// Delete removes keys, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"keys": keys, "error": err.Error()}).Warn("cache delete failed")
	}
	return nil
}
