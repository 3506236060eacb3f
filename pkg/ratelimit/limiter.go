package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bucket names a limit shared by a group of routes.
type Bucket struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Result reports the outcome of a single hit.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type counterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// Limiter is a fixed window counter shared across API instances through redis.
type Limiter struct {
	client counterClient
	prefix string
}

// New constructs a Limiter.
func New(client counterClient) *Limiter {
	return &Limiter{client: client, prefix: "ratelimit"}
}

// Allow counts a hit for subject inside bucket.
func (l *Limiter) Allow(ctx context.Context, bucket Bucket, subject string) (Result, error) {
	key := fmt.Sprintf("%s:%s:%s", l.prefix, bucket.Name, subject)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("increment %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, key, bucket.Window).Err(); err != nil {
			return Result{Allowed: true}, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	remaining := bucket.Limit - int(count)
	if remaining >= 0 {
		return Result{Allowed: true, Remaining: remaining}, nil
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		// a key without expiry would block the subject forever
		_ = l.client.PExpire(ctx, key, bucket.Window).Err()
		ttl = bucket.Window
	}
	return Result{Allowed: false, RetryAfter: ttl}, nil
}
