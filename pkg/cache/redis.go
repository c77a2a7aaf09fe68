package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

const keyPrefix = "schedule:"

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// ResultCache stores decided solve results keyed by request fingerprint.
// A nil client turns every lookup into a miss.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewResultCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{client: client, ttl: ttl, logger: logger}
}

// Fingerprint hashes the request's canonical JSON form. Map keys marshal in
// sorted order, so equal requests share a key.
func Fingerprint(req *models.ScheduleRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	sum := sha256.Sum256(raw)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

// Cacheable reports whether a result is a stable answer for its request.
// Time and node limits depend on load, so they are never stored.
func Cacheable(res *models.ScheduleResult) bool {
	if res == nil {
		return false
	}
	switch res.Status {
	case models.StatusOptimal, models.StatusInfeasible, models.StatusUnbounded:
		return true
	default:
		return false
	}
}

func (c *ResultCache) Get(ctx context.Context, key string) (*models.ScheduleResult, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var res models.ScheduleResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return &res, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, res *models.ScheduleResult) error {
	if c == nil || c.client == nil || !Cacheable(res) {
		return nil
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	c.logger.Debug("cached schedule result", zap.String("key", key), zap.String("status", res.Status))
	return nil
}
