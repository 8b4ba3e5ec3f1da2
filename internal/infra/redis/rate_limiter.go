package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RateLimiter grants one request per (user, action) per cooldown window using
// SET NX EX, so the check and the ticket write are a single round trip.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (l *RateLimiter) Allow(ctx context.Context, userID, action string, cooldown time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, rateLimitKey(userID, action), 1, cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("%w: rate limit %s/%s: %v", domain.ErrStoreUnavailable, userID, action, err)
	}
	return ok, nil
}

func rateLimitKey(userID, action string) string {
	return fmt.Sprintf("user:%s:func:%s:requests", userID, action)
}

var _ app.RateLimiter = (*RateLimiter)(nil)
