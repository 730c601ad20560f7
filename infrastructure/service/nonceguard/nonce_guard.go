package nonceguard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/infrastructure/service/logger"
)

const keyPrefix = "svc_nonce:"

// Config for the replay guard.
type Config struct {
	Enabled  bool
	RedisURL string
}

// redisNonceGuard records seen service-token nonces in Redis for the
// remaining lifetime of their token. SETNX gives first-writer-wins, so
// a replayed token loses the race by definition.
type redisNonceGuard struct {
	client *redis.Client
	logger logger.Logger
}

// New returns a Redis-backed guard when enabled, otherwise a noop guard
// that accepts every nonce (bounded-window replay risk accepted).
func New(cfg Config, log logger.Logger) (outbound.NonceGuard, error) {
	if !cfg.Enabled {
		log.Info(context.Background(), "Service token nonce guard disabled", nil)
		return &noopNonceGuard{}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info(ctx, "Service token nonce guard initialized", nil)

	return &redisNonceGuard{client: client, logger: log}, nil
}

func (g *redisNonceGuard) CheckAndStore(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	fresh, err := g.client.SetNX(ctx, keyPrefix+nonce, 1, ttl).Result()
	if err != nil {
		g.logger.Error(ctx, "Failed to record service token nonce", err, nil)
		return false, fmt.Errorf("failed to record nonce: %w", err)
	}

	if !fresh {
		g.logger.Warn(ctx, "Service token replay detected", map[string]interface{}{
			"nonce": nonce,
		})
	}

	return fresh, nil
}

func (g *redisNonceGuard) Enabled() bool {
	return true
}

// noopNonceGuard accepts every nonce without recording it.
type noopNonceGuard struct{}

func (n *noopNonceGuard) CheckAndStore(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (n *noopNonceGuard) Enabled() bool {
	return false
}
