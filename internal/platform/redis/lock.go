package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"claimtrail/pkg/domain"
	"claimtrail/pkg/platform/sentinel"
)

const lockKeyPrefix = "claimtrail:import-lock:"

// releaseScript deletes the lock only when the caller still owns it, so a
// lock that expired and was re-acquired by another import is never
// released by the first holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// TenantLock serializes imports per tenant across processes via SET NX.
type TenantLock struct {
	client *Client
	ttl    time.Duration
}

// NewTenantLock builds the lock. The TTL bounds how long a crashed import
// can block its tenant.
func NewTenantLock(client *Client, ttl time.Duration) *TenantLock {
	return &TenantLock{client: client, ttl: ttl}
}

// Lock acquires the tenant's import lock. It returns sentinel.ErrLocked
// when another import holds it, and a release func on success.
func (l *TenantLock) Lock(ctx context.Context, tenant domain.Tenant) (func(), error) {
	key := lockKeyPrefix + tenant.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
