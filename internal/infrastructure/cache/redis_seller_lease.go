package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
)

// defaultLeaseTTL bounds how long a crashed run can keep a seller locked
const defaultLeaseTTL = 30 * time.Minute

// releaseScript deletes the lease key only when the caller still owns it.
// Compare-and-delete must be atomic or a slow run could release the lease a
// later run has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisSellerLease implements the per-seller reconciliation lease on Redis.
// This is suitable for distributed deployments where multiple instances may
// try to reconcile the same seller.
type RedisSellerLease struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSellerLease creates a new Redis-based seller lease
func NewRedisSellerLease(cfg RedisConfig) (*RedisSellerLease, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSellerLeaseWithClient(client, "", 0), nil
}

// NewRedisSellerLeaseWithClient creates a lease with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisSellerLeaseWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSellerLease {
	if keyPrefix == "" {
		keyPrefix = "reconciliation:lease:"
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &RedisSellerLease{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Acquire takes the seller's exclusive reconciliation lease using SETNX.
// Returns shared.ErrSellerLocked when another run already holds it.
func (l *RedisSellerLease) Acquire(ctx context.Context, sellerID uuid.UUID) (appreconciliation.LeaseHandle, error) {
	key := l.keyPrefix + sellerID.String()
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire seller lease: %w", err)
	}
	if !acquired {
		return nil, shared.ErrSellerLocked
	}

	return &redisLeaseHandle{client: l.client, key: key, token: token}, nil
}

// Close closes the Redis client
func (l *RedisSellerLease) Close() error {
	return l.client.Close()
}

// redisLeaseHandle releases one acquired lease
type redisLeaseHandle struct {
	client *redis.Client
	key    string
	token  string
}

// Release gives the lease back. Releasing a lease that has already expired is
// not an error.
func (h *redisLeaseHandle) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err(); err != nil {
		return fmt.Errorf("failed to release seller lease: %w", err)
	}
	return nil
}

// Ensure RedisSellerLease implements SellerLease
var _ appreconciliation.SellerLease = (*RedisSellerLease)(nil)
