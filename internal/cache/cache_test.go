package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.Nil(t, New(nil))

	val, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, val)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestUnreachableRedisFailsSafe(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	c := New(rdb)
	ctx := context.Background()

	val, err := c.Get(ctx, "statues:all")
	assert.NoError(t, err)
	assert.Nil(t, val)
	assert.NoError(t, c.Set(ctx, "statues:all", []byte("[]"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "statues:all"))
}
