package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "fittrack"

// ErrMiss is returned when a key is absent
var ErrMiss = errors.New("cache: miss")

// Store is the cache surface the services depend on. *Client implements it;
// tests substitute an in-memory fake.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Client wraps the shared redis connection. It is constructed once at
// startup and passed to every consumer; there is no package-level instance.
type Client struct {
	rdb *redis.Client
}

// New creates a Client over an established redis connection
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping verifies connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the string stored at key, or ErrMiss
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// Set stores a string value with a TTL
func (c *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes the given keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Incr increments the counter stored at key
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// GetInt returns the integer stored at key, or 0 when absent
func (c *Client) GetInt(ctx context.Context, key string) (int64, error) {
	val, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// IncrWithTTL increments and sets the TTL on the first increment of a window
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// TTL returns the remaining lifetime of key
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.rdb.TTL(ctx, key).Result()
}

// UserVersionKey is the per-user cache version counter, bumped by goal and
// profile writes. Bumping it orphans every cached entry built under the old
// version without deleting them individually.
func UserVersionKey(userID uint) string {
	return fmt.Sprintf("%s:ver:user:%d", keyNamespace, userID)
}

// PlansVersionKey is the global plans version counter, bumped by any workout
// plan write. Plan changes affect every user's recommendations, so the
// counter is not user-scoped.
func PlansVersionKey() string {
	return fmt.Sprintf("%s:ver:plans", keyNamespace)
}

// RecommendationKey builds the cache key for one page of a user's
// recommendations under the given user and plans versions.
func RecommendationKey(userID uint, userVer, plansVer int64, page, pageSize int) string {
	return fmt.Sprintf("%s:rec:%d:v%d.%d:p%d:s%d", keyNamespace, userID, userVer, plansVer, page, pageSize)
}

// ProfileKey builds the cache key for a user's profile response under the
// given user version.
func ProfileKey(userID uint, userVer int64) string {
	return fmt.Sprintf("%s:profile:%d:v%d", keyNamespace, userID, userVer)
}

// LoginRateKey builds the fixed-window login throttle key
func LoginRateKey(email, clientIP string) string {
	return fmt.Sprintf("%s:rate:login:%s:%s", keyNamespace, email, clientIP)
}
