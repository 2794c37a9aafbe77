package pool

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	poolKeyFmt     = "%s:pool:%s"
	defaultPoolKey = "default"
)

// Redis reads caps published by the bankroll service as decimal strings
// under "<prefix>:pool:<game>", falling back to "<prefix>:pool:default".
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "outcome"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(gameID string) string { return fmt.Sprintf(poolKeyFmt, r.prefix, gameID) }

// MaxPayout implements Source.
func (r *Redis) MaxPayout(ctx context.Context, gameID string) (decimal.Decimal, error) {
	vals, err := r.rdb.MGet(ctx, r.key(gameID), r.key(defaultPoolKey)).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("read pool cap: %w", err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidPoolCap, s, err)
		}
		if d.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidPoolCap, d)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPool, gameID)
}

// Publish stores a cap; used by tooling and tests.
func (r *Redis) Publish(ctx context.Context, gameID string, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidPoolCap, limit)
	}
	return r.rdb.Set(ctx, r.key(gameID), limit.String(), 0).Err()
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
