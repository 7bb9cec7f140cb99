package marketplace

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// maxCatalogPages caps the pagination loop against marketplaces that never
// stop reporting more pages.
const maxCatalogPages = 1000

// Fetcher pulls full catalogs from N marketplaces concurrently, one goroutine
// per marketplace, each paced by that marketplace's own rate limiter. Gather
// with partial failure: a failed marketplace yields an empty list plus an
// error entry; it never blocks or fails the others.
type Fetcher struct {
	adapters marketplace.AdapterRegistry
	logger   *zap.Logger

	mu       sync.Mutex
	limiters map[marketplace.Code]*rate.Limiter
}

// NewFetcher creates a new concurrent catalog fetcher
func NewFetcher(adapters marketplace.AdapterRegistry, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		adapters: adapters,
		logger:   logger,
		limiters: make(map[marketplace.Code]*rate.Limiter),
	}
}

// FetchAll pulls the seller's full catalog from every named marketplace.
// The returned map always has an entry per requested marketplace.
func (f *Fetcher) FetchAll(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code) (map[marketplace.Code][]marketplace.RawProduct, []appreconciliation.FetchError) {
	records := make(map[marketplace.Code][]marketplace.RawProduct, len(codes))
	fetchErrors := make(map[marketplace.Code]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, code := range codes {
		g.Go(func() error {
			items, err := f.fetchCatalog(gctx, sellerID, code)

			mu.Lock()
			defer mu.Unlock()
			records[code] = items
			if err != nil {
				records[code] = nil
				fetchErrors[code] = err.Error()
			}
			// fetch failures are input unavailability, never group errors
			return nil
		})
	}
	_ = g.Wait()

	errCodes := make([]marketplace.Code, 0, len(fetchErrors))
	for code := range fetchErrors {
		errCodes = append(errCodes, code)
	}
	sort.Slice(errCodes, func(i, j int) bool { return errCodes[i] < errCodes[j] })

	errs := make([]appreconciliation.FetchError, 0, len(errCodes))
	for _, code := range errCodes {
		errs = append(errs, appreconciliation.FetchError{
			Marketplace: code,
			Message:     fetchErrors[code],
		})
	}
	return records, errs
}

// fetchCatalog paginates one marketplace's catalog to the end
func (f *Fetcher) fetchCatalog(ctx context.Context, sellerID uuid.UUID, code marketplace.Code) ([]marketplace.RawProduct, error) {
	adapter, err := f.adapters.Get(code)
	if err != nil {
		return nil, err
	}

	enabled, err := adapter.IsEnabled(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, marketplace.ErrNotEnabled
	}

	limiter := f.limiter(adapter)

	var items []marketplace.RawProduct
	for page := 0; page < maxCatalogPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := adapter.FetchProducts(ctx, sellerID, marketplace.Pagination{Page: page})
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", code, page, err)
		}
		items = append(items, result.Items...)

		if !result.HasMore || len(result.Items) == 0 {
			break
		}
	}

	f.logger.Debug("catalog fetched",
		zap.String("seller_id", sellerID.String()),
		zap.String("marketplace", code.String()),
		zap.Int("products", len(items)),
	)
	return items, nil
}

// limiter returns the marketplace's rate limiter, creating it on first use
// from the adapter's configuration when available.
func (f *Fetcher) limiter(adapter marketplace.Adapter) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	code := adapter.Code()
	if l, ok := f.limiters[code]; ok {
		return l
	}

	rps, burst := 5.0, 1
	if client, ok := adapter.(*CatalogClient); ok {
		rps = client.Config().RatePerSecond
		burst = client.Config().RateBurst
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	f.limiters[code] = l
	return l
}

// Ensure Fetcher implements the application port
var _ appreconciliation.CatalogFetcher = (*Fetcher)(nil)
