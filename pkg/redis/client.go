package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/pitviper/backend/pkg/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
)

// Client wraps the Redis client. A disabled client turns every
// cache and rate limit operation into a no-op.
type Client struct {
	rdb *redis.Client
}

// New connects when cfg.Enabled and verifies the connection with a ping.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Disabled returns a client that never touches the network.
func Disabled() *Client {
	return &Client{}
}

// Close closes the connection. No-op when disabled.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether a server is connected.
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Ping checks connectivity; a disabled client is always healthy.
func (c *Client) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Redis returns the underlying client, nil when disabled.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
