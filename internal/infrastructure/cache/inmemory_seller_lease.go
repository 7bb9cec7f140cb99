package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
)

// InMemorySellerLease implements the per-seller reconciliation lease with an
// in-process map. This is suitable for single-instance deployments and testing.
type InMemorySellerLease struct {
	mu     sync.Mutex
	ttl    time.Duration
	leases map[uuid.UUID]memoryLease
}

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// NewInMemorySellerLease creates a new in-memory seller lease
func NewInMemorySellerLease() *InMemorySellerLease {
	return NewInMemorySellerLeaseWithTTL(defaultLeaseTTL)
}

// NewInMemorySellerLeaseWithTTL creates a lease with a custom TTL
func NewInMemorySellerLeaseWithTTL(ttl time.Duration) *InMemorySellerLease {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &InMemorySellerLease{
		ttl:    ttl,
		leases: make(map[uuid.UUID]memoryLease),
	}
}

// Acquire takes the seller's exclusive reconciliation lease.
// Returns shared.ErrSellerLocked when another run already holds it.
func (l *InMemorySellerLease) Acquire(ctx context.Context, sellerID uuid.UUID) (appreconciliation.LeaseHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.leases[sellerID]; ok && time.Now().Before(existing.expiresAt) {
		return nil, shared.ErrSellerLocked
	}

	token := uuid.NewString()
	l.leases[sellerID] = memoryLease{
		token:     token,
		expiresAt: time.Now().Add(l.ttl),
	}
	return &memoryLeaseHandle{lease: l, sellerID: sellerID, token: token}, nil
}

// release deletes the lease only when the token still matches, mirroring the
// Redis compare-and-delete.
func (l *InMemorySellerLease) release(sellerID uuid.UUID, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.leases[sellerID]; ok && existing.token == token {
		delete(l.leases, sellerID)
	}
}

type memoryLeaseHandle struct {
	lease    *InMemorySellerLease
	sellerID uuid.UUID
	token    string
}

// Release gives the lease back
func (h *memoryLeaseHandle) Release(ctx context.Context) error {
	h.lease.release(h.sellerID, h.token)
	return nil
}

// Ensure InMemorySellerLease implements SellerLease
var _ appreconciliation.SellerLease = (*InMemorySellerLease)(nil)
