// Package cache builds the Redis client shared by the login throttle.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Options tunes the Redis client.
type Options struct {
	Addr        string
	DialTimeout time.Duration
	PoolSize    int
}

// New returns a client for opts.Addr together with the result of an initial
// ping. The client is usable even when the ping fails; callers decide whether
// an unreachable Redis is fatal.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		DialTimeout: opts.DialTimeout,
		PoolSize:    opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
