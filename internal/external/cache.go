package external

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
)

// CachedSystem is a read-through Redis cache in front of the external
// system: repeated imports of the same numbers within the TTL hit the
// portal once. Cache failures degrade to direct lookups; they are logged,
// never surfaced.
type CachedSystem struct {
	inner  System
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSystem wraps inner with a lookup cache.
func NewCachedSystem(inner System, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSystem {
	return &CachedSystem{inner: inner, client: client, ttl: ttl, logger: logger}
}

type cachedLookup struct {
	Found      bool   `json:"found"`
	SystemCost string `json:"system_cost"`
}

func lookupKey(number domain.ClaimNumber) string {
	return "claimtrail:lookup:" + number.String()
}

func (c *CachedSystem) Lookup(ctx context.Context, number domain.ClaimNumber, declared domain.Money) (rules.LookupResult, error) {
	key := lookupKey(number)
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var cached cachedLookup
		if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
			cost, parseErr := domain.ParseMoney(cached.SystemCost)
			if parseErr == nil {
				return rules.LookupResult{Found: cached.Found, SystemCost: cost}, nil
			}
		}
		// fall through on corrupt entries; the portal is authoritative
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "lookup cache read failed", "error", err)
	}

	result, err := c.inner.Lookup(ctx, number, declared)
	if err != nil {
		return rules.LookupResult{}, err
	}

	payload, err := json.Marshal(cachedLookup{Found: result.Found, SystemCost: result.SystemCost.String()})
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "lookup cache write failed", "error", setErr)
		}
	}
	return result, nil
}

// Release passes through and drops the cached entry: a released claim's
// next lookup should see fresh portal state.
func (c *CachedSystem) Release(ctx context.Context, number domain.ClaimNumber, cost domain.Money) bool {
	released := c.inner.Release(ctx, number, cost)
	if released {
		if err := c.client.Del(ctx, lookupKey(number)).Err(); err != nil {
			c.logger.WarnContext(ctx, "lookup cache invalidation failed", "error", err)
		}
	}
	return released
}
