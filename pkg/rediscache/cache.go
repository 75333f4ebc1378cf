// Package rediscache shares exported documents between builder processes
// through Redis.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goliatone/go-emailbuilder/components/builder"
)

const (
	DefaultPrefix  = "emailbuilder:export:"
	DefaultTimeout = 500 * time.Millisecond
	// DefaultTTL applies when Config.TTL is not positive. Keys change on
	// every edit, so entries always expire.
	DefaultTTL = 10 * time.Minute
)

// Client is the subset of *redis.Client used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Config configures a Cache.
type Config struct {
	Client  Client
	TTL     time.Duration
	Prefix  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Cache is a builder.RenderCache backed by Redis. Redis failures fall back
// to rendering, so an unavailable server only costs the cache hit.
type Cache struct {
	client  Client
	ttl     time.Duration
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

var _ builder.RenderCache = (*Cache)(nil)

// New builds a cache. A nil client yields an error.
func New(cfg Config) (*Cache, error) {
	if cfg.Client == nil {
		return nil, errors.New("rediscache: client is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Cache{
		client:  cfg.Client,
		ttl:     cfg.TTL,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// NewClient builds a client. Connections are opened on first use.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// GetOrRender returns the cached body for key or renders and stores it.
func (c *Cache) GetOrRender(key string, render func() (string, error)) (string, error) {
	key = c.prefix + key

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	body, err := c.client.Get(ctx, key).Result()
	cancel()
	switch {
	case err == nil:
		return body, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("export cache read failed", zap.String("key", key), zap.Error(err))
	}

	body, err = render()
	if err != nil {
		return "", err
	}

	ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.logger.Warn("export cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}
