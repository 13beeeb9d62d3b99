// Package redis wraps the Redis operations used by the job scheduler: a
// SetNX-based lease lock guaranteeing non-overlapping job runs across
// processes.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for job leasing.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func leaseKey(job string) string {
	return fmt.Sprintf("job_lease:%s", job)
}

// AcquireLease attempts to take the lease for a job. Returns false when
// another holder has it.
func (c *Client) AcquireLease(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, leaseKey(job), "leased", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseLease releases the lease for a job.
func (c *Client) ReleaseLease(ctx context.Context, job string) error {
	return c.rdb.Del(ctx, leaseKey(job)).Err()
}

// RefreshLease extends the TTL of a held lease.
func (c *Client) RefreshLease(ctx context.Context, job string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, leaseKey(job), ttl).Err()
}
