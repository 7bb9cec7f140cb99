package reconciliation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
)

// fakeFetcher serves canned catalogs and simulated per-marketplace failures
type fakeFetcher struct {
	records map[marketplace.Code][]marketplace.RawProduct
	failing map[marketplace.Code]string
}

func (f *fakeFetcher) FetchAll(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code) (map[marketplace.Code][]marketplace.RawProduct, []FetchError) {
	out := make(map[marketplace.Code][]marketplace.RawProduct, len(codes))
	var errs []FetchError
	for _, code := range codes {
		if msg, ok := f.failing[code]; ok {
			out[code] = nil
			errs = append(errs, FetchError{Marketplace: code, Message: msg})
			continue
		}
		out[code] = f.records[code]
	}
	return out, errs
}

// passMapper maps flat raw records straight onto canonical fields
type passMapper struct {
	code marketplace.Code
}

func (m *passMapper) Marketplace() marketplace.Code { return m.code }

func (m *passMapper) ToCanonical(raw marketplace.RawProduct) (*reconciliation.NormalizedProduct, error) {
	id := raw.String("id")
	name := raw.String("name")
	if id == "" || name == "" {
		return nil, marketplace.ErrUnmappableRecord
	}
	return &reconciliation.NormalizedProduct{
		Marketplace: m.code,
		ExternalID:  id,
		SKU:         raw.String("sku"),
		Barcode:     raw.String("barcode"),
		Name:        name,
		Brand:       raw.String("brand"),
		Price:       raw.Decimal("price"),
		Stock:       raw.Int("stock"),
		Status:      reconciliation.ListingStatusActive,
		Original:    raw,
	}, nil
}

func (m *passMapper) FromCanonical(p *reconciliation.NormalizedProduct) marketplace.RawProduct {
	return marketplace.RawProduct{
		"id":    p.ExternalID,
		"sku":   p.SKU,
		"name":  p.Name,
		"price": p.Price.String(),
		"stock": p.Stock,
	}
}

type passRegistry struct{}

func (passRegistry) Mapper(code marketplace.Code) (reconciliation.ProductMapper, error) {
	if !code.IsValid() {
		return nil, marketplace.ErrMapperNotRegistered
	}
	return &passMapper{code: code}, nil
}

// fakeRepo is an in-memory ReconciledProductRepository with injectable write
// failures keyed by product name.
type fakeRepo struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*reconciliation.ReconciledProduct
	failNames map[string]string
	saves     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products:  make(map[uuid.UUID]*reconciliation.ReconciledProduct),
		failNames: make(map[string]string),
	}
}

func (r *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.ReconciledProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) FindByName(ctx context.Context, sellerID uuid.UUID, name string) (*reconciliation.ReconciledProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SellerID == sellerID && p.Name == name {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRepo) FindByListingSKU(ctx context.Context, sellerID uuid.UUID, code marketplace.Code, sku string) (*reconciliation.ReconciledProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SellerID != sellerID {
			continue
		}
		for _, l := range p.Listings {
			if l.Marketplace == code && l.SKU == sku {
				return p, nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRepo) FindAllForSeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]reconciliation.ReconciledProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []reconciliation.ReconciledProduct
	for _, p := range r.products {
		if p.SellerID == sellerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountForSeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	products, _ := r.FindAllForSeller(ctx, sellerID, shared.Filter{})
	return int64(len(products)), nil
}

func (r *fakeRepo) SaveGroup(ctx context.Context, product *reconciliation.ReconciledProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := r.failNames[product.Name]; ok {
		return shared.NewDomainError("PERSISTENCE_FAILED", msg)
	}
	r.products[product.ID] = product
	r.saves++
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}

// fakeLease grants or denies the per-seller lease and records releases
type fakeLease struct {
	denied   bool
	acquired int
	released int
}

type fakeLeaseHandle struct {
	lease *fakeLease
}

func (h *fakeLeaseHandle) Release(ctx context.Context) error {
	h.lease.released++
	return nil
}

func (l *fakeLease) Acquire(ctx context.Context, sellerID uuid.UUID) (LeaseHandle, error) {
	if l.denied {
		return nil, shared.ErrSellerLocked
	}
	l.acquired++
	return &fakeLeaseHandle{lease: l}, nil
}
