package marketplace

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
)

// MapperRegistry is the lookup table of per-marketplace mapping strategies.
// Adding a marketplace means one Register call; matching and grouping code
// never changes.
type MapperRegistry struct {
	mu      sync.RWMutex
	mappers map[marketplace.Code]reconciliation.ProductMapper
}

// NewMapperRegistry creates a registry with the four built-in mappers
func NewMapperRegistry() *MapperRegistry {
	r := &MapperRegistry{
		mappers: make(map[marketplace.Code]reconciliation.ProductMapper),
	}
	r.Register(NewTrendyolMapper())
	r.Register(NewHepsiburadaMapper())
	r.Register(NewN11Mapper())
	r.Register(NewAmazonMapper())
	return r
}

// Register adds or replaces the mapper for its marketplace
func (r *MapperRegistry) Register(m reconciliation.ProductMapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappers[m.Marketplace()] = m
}

// Mapper returns the mapper for the given marketplace
func (r *MapperRegistry) Mapper(code marketplace.Code) (reconciliation.ProductMapper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappers[code]
	if !ok {
		return nil, marketplace.ErrMapperNotRegistered
	}
	return m, nil
}

// AdapterRegistry holds the configured marketplace catalog adapters
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[marketplace.Code]marketplace.Adapter
}

// NewAdapterRegistry creates an empty adapter registry
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[marketplace.Code]marketplace.Adapter),
	}
}

// Register adds or replaces the adapter for its marketplace
func (r *AdapterRegistry) Register(a marketplace.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Code()] = a
}

// Get returns the adapter for the specified marketplace
func (r *AdapterRegistry) Get(code marketplace.Code) (marketplace.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[code]
	if !ok {
		return nil, marketplace.ErrNotConfigured
	}
	return a, nil
}

// List returns all registered adapters in marketplace-code order
func (r *AdapterRegistry) List() []marketplace.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]marketplace.Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}

// ListEnabled returns all adapters enabled for a seller
func (r *AdapterRegistry) ListEnabled(ctx context.Context, sellerID uuid.UUID) ([]marketplace.Adapter, error) {
	var out []marketplace.Adapter
	for _, a := range r.List() {
		enabled, err := a.IsEnabled(ctx, sellerID)
		if err != nil {
			return nil, err
		}
		if enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

// Ensure the registries implement their ports
var (
	_ reconciliation.MapperRegistry = (*MapperRegistry)(nil)
	_ marketplace.AdapterRegistry   = (*AdapterRegistry)(nil)
)
