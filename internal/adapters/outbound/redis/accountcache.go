// Package redis provides a Redis implementation of the AccountCache port.
//
// Account snapshots are stored as raw JSON with a short TTL under
// prefix:account:server:digest, where digest is derived from the password.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

// Compile-time check that AccountCache implements outbound.AccountCache
var _ outbound.AccountCache = (*AccountCache)(nil)

// Config holds Redis cache configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL is how long a snapshot is served before the connector is asked again
	TTL time.Duration
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults for Redis cache configuration.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		TTL:       5 * time.Second,
		KeyPrefix: "mt5",
	}
}

// AccountCache is a Redis implementation of the outbound.AccountCache port.
type AccountCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewAccountCache creates a new Redis account cache.
func NewAccountCache(cfg Config, logger *slog.Logger) (*AccountCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %s", cfg.TTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &AccountCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-cache"),
	}, nil
}

// Ping checks the Redis connection.
func (c *AccountCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *AccountCache) Close() error {
	return c.client.Close()
}

// key generates a cache key in the format prefix:account:account:server:digest
func (c *AccountCache) key(creds entity.Credentials) string {
	sum := sha256.Sum256([]byte(creds.Account + "\x00" + creds.Server + "\x00" + creds.Password))
	return fmt.Sprintf("%s:account:%s:%s:%s", c.keyPrefix, creds.Account, creds.Server, hex.EncodeToString(sum[:8]))
}

// GetAccount retrieves a cached snapshot.
func (c *AccountCache) GetAccount(ctx context.Context, creds entity.Credentials) (json.RawMessage, error) {
	data, err := c.client.Get(ctx, c.key(creds)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account snapshot: %w", err)
	}
	return data, nil
}

// SetAccount caches a snapshot for the configured TTL.
func (c *AccountCache) SetAccount(ctx context.Context, creds entity.Credentials, data json.RawMessage) error {
	if err := c.client.Set(ctx, c.key(creds), []byte(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache account snapshot: %w", err)
	}
	return nil
}
