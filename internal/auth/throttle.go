package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "rbac:login:fail:"

// LoginThrottle counts failed logins per attempt key. Keys combine the
// client address and the email.
type LoginThrottle interface {
	// Allow returns shared.ErrTooManyAttempts when key is locked out.
	Allow(ctx context.Context, key string) error
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RedisThrottle keeps failure counters in Redis with a fixed window that
// starts at the first failure.
type RedisThrottle struct {
	client      redis.Cmdable
	maxFailures int
	window      time.Duration
}

// NewRedisThrottle builds a throttle. maxFailures <= 0 disables it.
func NewRedisThrottle(client redis.Cmdable, maxFailures int, window time.Duration) LoginThrottle {
	if client == nil || maxFailures <= 0 {
		return NopThrottle{}
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisThrottle{client: client, maxFailures: maxFailures, window: window}
}

// Allow implements LoginThrottle.
func (t *RedisThrottle) Allow(ctx context.Context, key string) error {
	raw, err := t.client.Get(ctx, throttleKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	if count >= t.maxFailures {
		return errThrottled
	}
	return nil
}

// Fail implements LoginThrottle.
func (t *RedisThrottle) Fail(ctx context.Context, key string) error {
	redisKey := throttleKey(key)
	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.client.Expire(ctx, redisKey, t.window).Err()
	}
	return nil
}

// Reset implements LoginThrottle.
func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, throttleKey(key)).Err()
}

func throttleKey(key string) string {
	return throttleKeyPrefix + key
}

// NopThrottle never locks anyone out.
type NopThrottle struct{}

// Allow implements LoginThrottle.
func (NopThrottle) Allow(context.Context, string) error { return nil }

// Fail implements LoginThrottle.
func (NopThrottle) Fail(context.Context, string) error { return nil }

// Reset implements LoginThrottle.
func (NopThrottle) Reset(context.Context, string) error { return nil }
