// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxLoginAttempts = 5
	loginWindow      = 15 * time.Minute
)

// Limiter throttles credential-guessing traffic with redis counters.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckLoginAttempt records one login attempt for the ip+identifier pair and
// reports whether it is still allowed, plus the attempts remaining.
func (r *Limiter) CheckLoginAttempt(ctx context.Context, ip, identifier string) (bool, int64, error) {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, identifier)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment login attempt: %w", err)
	}

	// Window starts on the first attempt.
	if count == 1 {
		r.client.Expire(ctx, key, loginWindow)
	}

	remaining := int64(maxLoginAttempts) - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= maxLoginAttempts, remaining, nil
}

// ResetLoginAttempts clears the counter after a successful login.
func (r *Limiter) ResetLoginAttempts(ctx context.Context, ip, identifier string) error {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, identifier)
	return r.client.Del(ctx, key).Err()
}
