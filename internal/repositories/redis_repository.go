package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	"github.com/gearnix/autoparts-api/internal/config"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error)
}

// CheckoutLockRepository serializes checkouts per user. AcquireCheckoutLock
// returns false while another checkout holds the lock; the TTL bounds how
// long a crashed checkout can block the user.
type CheckoutLockRepository interface {
	AcquireCheckoutLock(ctx context.Context, userID string) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, userID string) error
}

type redisRepository struct {
	client redis.UniversalClient
	cfg    *config.Config
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisConnect.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewRedisRepo(client redis.UniversalClient, cfg *config.Config) *redisRepository {
	return &redisRepository{client: client, cfg: cfg}
}

// Returns isAllowed, attempts left, seconds to wait, error.
func (r *redisRepository) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("login_attempts:%s", username)

	now := time.Now().Unix()
	windowStart := now - int64(r.cfg.RateConfig.WindowSize.Seconds())

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.RateConfig.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit",
			slog.String("key", key), slog.Any("error", err))

		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	remaining := r.cfg.RateConfig.MaxAttempts - attempts

	if attempts >= r.cfg.RateConfig.MaxAttempts {
		oldestScoreCmd := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		})

		scores, err := oldestScoreCmd.Result()
		if err != nil || len(scores) == 0 {
			return false, 0, int(r.cfg.RateConfig.WindowSize.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldestTimestamp := int64(scores[0].Score)
		retryAfter := max((oldestTimestamp+int64(r.cfg.RateConfig.WindowSize.Seconds()))-now, 0)

		logger.Warn("Rate limit exceeded for user",
			slog.String("username", username), slog.Int64("attempts", attempts))

		return false, 0, int(retryAfter), nil
	}

	return true, int(remaining), 0, nil
}

func checkoutLockKey(userID string) string {
	return fmt.Sprintf("checkout_in_progress:%s", userID)
}

func (r *redisRepository) AcquireCheckoutLock(ctx context.Context, userID string) (bool, error) {
	acquired, err := r.client.SetNX(ctx, checkoutLockKey(userID), time.Now().Unix(), r.cfg.Checkout.LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}

	return acquired, nil
}

func (r *redisRepository) ReleaseCheckoutLock(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, checkoutLockKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to release checkout lock: %w", err)
	}

	return nil
}
