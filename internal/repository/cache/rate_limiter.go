package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain/repository"
)

type rateLimitRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRateLimitRepository returns the Redis-backed submission counter. INCR
// plus a first-write EXPIRE gives the atomic increment-and-compare the
// rate limit depends on.
func NewRateLimitRepository(r *Redis) repository.RateLimitRepository {
	return &rateLimitRepository{
		client: r.Client(),
		logger: r.logger,
	}
}

func rateLimitKey(userID string) string {
	return fmt.Sprintf("ratelimit:occurrences:%s", userID)
}

func (r *rateLimitRepository) Increment(ctx context.Context, userID string, window time.Duration) (int, time.Time, error) {
	key := rateLimitKey(userID)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to increment rate limit counter", zap.String("key", key), zap.Error(err))
		return 0, time.Time{}, fmt.Errorf("rate limit incr error: %w", err)
	}

	// ExpireNX only arms the TTL when none is set, so concurrent first
	// increments cannot push the window reset forward.
	if err := r.client.ExpireNX(ctx, key, window).Err(); err != nil {
		r.logger.Error("Failed to set rate limit window", zap.String("key", key), zap.Error(err))
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}

func (r *rateLimitRepository) Count(ctx context.Context, userID string) (int, error) {
	val, err := r.client.Get(ctx, rateLimitKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rate limit get error: %w", err)
	}
	return val, nil
}
