package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection for sessions, rate limiting, presence and
// the delayed-message queue.
type Client struct {
	rdb *goredis.Client
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
	return &Client{rdb: rdb}, nil
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_session:"
	resetCodePrefix   = "reset_code:"
	resetEmailPrefix  = "reset_email:"
	presencePrefix    = "presence:"
	typingPrefix      = "typing:"
	rateLimitPrefix   = "rl:"
	scheduledKey      = "scheduled_messages"

	presenceTTL = 5 * time.Minute
	typingTTL   = 10 * time.Second
)

// rateLimitScript atomically increments a counter, sets its TTL on first use
// and returns the count with the remaining TTL in milliseconds.
var rateLimitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// CheckRateLimit counts a hit against a fixed window. It reports whether the
// request is allowed, the count so far and the milliseconds until reset.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, int64, error) {
	res, err := rateLimitScript.Run(ctx, c.rdb, []string{rateLimitPrefix + key}, window.Milliseconds()).Int64Slice()
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

// SetPresence sets a user's presence status with a TTL.
func (c *Client) SetPresence(ctx context.Context, userID int64, status string) error {
	return c.rdb.Set(ctx, presencePrefix+strconv.FormatInt(userID, 10), status, presenceTTL).Err()
}

// GetPresence returns a user's presence status, or empty string if not set.
func (c *Client) GetPresence(ctx context.Context, userID int64) (string, error) {
	val, err := c.rdb.Get(ctx, presencePrefix+strconv.FormatInt(userID, 10)).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting presence: %w", err)
	}
	return val, nil
}

// DeletePresence removes a user's presence status.
func (c *Client) DeletePresence(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, presencePrefix+strconv.FormatInt(userID, 10)).Err()
}

func typingKeyPrefix(channelID int64) string {
	return typingPrefix + strconv.FormatInt(channelID, 10) + ":"
}

// SetTyping marks a user as typing in a channel with a short TTL. It reports
// false when the mark was already present, so callers can skip re-announcing.
func (c *Client) SetTyping(ctx context.Context, channelID, userID int64) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, typingKeyPrefix(channelID)+strconv.FormatInt(userID, 10), 1, typingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("setting typing: %w", err)
	}
	return ok, nil
}

// Flush deletes every key this package owns, returning the store to the
// state of a fresh deployment.
func (c *Client) Flush(ctx context.Context) error {
	var keys []string
	for _, prefix := range []string{
		sessionPrefix, userSessionPrefix, resetCodePrefix, resetEmailPrefix,
		presencePrefix, typingPrefix, rateLimitPrefix,
	} {
		if err := c.scan(ctx, prefix+"*", func(key string) { keys = append(keys, key) }); err != nil {
			return fmt.Errorf("scanning %s keys: %w", prefix, err)
		}
	}
	keys = append(keys, scheduledKey)
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) scan(ctx context.Context, pattern string, fn func(key string)) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		for _, key := range keys {
			fn(key)
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
