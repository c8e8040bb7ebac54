package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection for the message cache, rate limiting and
// the gateway event stream.
type Client struct {
	rdb      *goredis.Client
	cacheTTL time.Duration
}

// NewClient creates a Redis client from a URL and verifies the connection.
func NewClient(redisURL string) (*Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Client{rdb: rdb, cacheTTL: defaultCacheTTL}, nil
}

// SetCacheTTL sets the expiry applied to cached message pages.
func (c *Client) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		c.cacheTTL = ttl
	}
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// rateLimitScript atomically increments a counter, sets its TTL on first use
// and returns the count together with the remaining TTL in milliseconds.
var rateLimitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// CheckRateLimit reports whether the request is allowed under a fixed-window
// counter, along with the current count and the window's remaining TTL.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, int64, error) {
	res, err := rateLimitScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("checking rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, 0, fmt.Errorf("checking rate limit: unexpected reply %v", res)
	}
	count, ttl := res[0], res[1]
	if ttl < 0 {
		ttl = window.Milliseconds()
	}
	return count <= int64(limit), count, ttl, nil
}
