package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration // Default TTL for cache entries
}

// RedisCache is a non-authoritative look-aside cache. The database is
// always the source of truth; every read here may miss or be stale and
// callers must fall through to the store.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func CreateRedisCache(config RedisConfig) (*RedisCache, error) {
	portStr := strconv.Itoa(config.Port)

	addr := config.Host + ":" + portStr
	if config.Port == 0 {
		addr = config.Host + ":6379" // Default Redis port
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

const (
	contentKeyPrefix = "content:fp:"
	quoteKeyPrefix   = "quote:"
)

// GetContentID returns the cached content ID for a fingerprint. A miss
// returns ("", nil); cache errors are returned so callers can log them,
// but callers treat any error the same as a miss.
func (c *RedisCache) GetContentID(ctx context.Context, fingerprint string) (string, error) {
	val, err := c.client.Get(ctx, contentKeyPrefix+fingerprint).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisCache) SetContentID(ctx context.Context, fingerprint, contentID string) error {
	return c.client.Set(ctx, contentKeyPrefix+fingerprint, contentID, c.ttl).Err()
}

// GetQuote returns a cached quote amount in cents, with ok=false on a miss.
func (c *RedisCache) GetQuote(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.client.Get(ctx, quoteKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	cents, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return cents, true, nil
}

// SetQuote stores a quote under its own TTL; quote entries expire rather
// than being invalidated.
func (c *RedisCache) SetQuote(ctx context.Context, key string, amountCents int64, ttl time.Duration) error {
	return c.client.Set(ctx, quoteKeyPrefix+key, strconv.FormatInt(amountCents, 10), ttl).Err()
}

// Ping reports whether the redis connection is live; used by the health
// endpoint.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
