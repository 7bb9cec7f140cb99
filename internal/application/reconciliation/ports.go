package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
)

// CatalogFetcher pulls full product catalogs for the requested marketplaces.
// Implementations use gather-with-partial-failure semantics: a marketplace
// whose pull fails contributes an empty record list plus one FetchError, and
// never blocks or fails the other marketplaces.
type CatalogFetcher interface {
	// FetchAll returns the raw records per marketplace. The returned map has
	// an entry for every requested marketplace, failed ones included.
	FetchAll(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code) (map[marketplace.Code][]marketplace.RawProduct, []FetchError)
}

// FetchError reports one marketplace whose catalog pull failed
type FetchError struct {
	Marketplace marketplace.Code `json:"marketplace"`
	Message     string           `json:"message"`
}

// SellerLease serializes reconciliation writes per seller: at most one execute
// may run at a time for a given seller.
type SellerLease interface {
	// Acquire takes the seller's exclusive reconciliation lease. It returns
	// shared.ErrSellerLocked when another run already holds it.
	Acquire(ctx context.Context, sellerID uuid.UUID) (LeaseHandle, error)
}

// LeaseHandle releases an acquired lease
type LeaseHandle interface {
	Release(ctx context.Context) error
}

// ProgressFunc receives monotonically increasing completion percentages from a
// long-running reconciliation. A nil ProgressFunc is valid and reports nowhere.
type ProgressFunc func(percent int)

func (f ProgressFunc) report(percent int) {
	if f != nil {
		f(percent)
	}
}

// RunMetrics records reconciliation run outcomes. Implementations must be
// safe for concurrent use; a nil-safe noop is used when telemetry is disabled.
type RunMetrics interface {
	// RecordRun counts one completed analyze/reconcile run over n marketplaces
	RecordRun(ctx context.Context, marketplaces int)

	// RecordGrouping counts the grouping outcome of one run
	RecordGrouping(ctx context.Context, groups, singles, conflicted int)

	// RecordPersisted counts the persistence outcome of one execute
	RecordPersisted(ctx context.Context, saved, skipped, failed int)
}

// NopMetrics is the RunMetrics used when telemetry is disabled
type NopMetrics struct{}

func (NopMetrics) RecordRun(context.Context, int) {}

func (NopMetrics) RecordGrouping(context.Context, int, int, int) {}

func (NopMetrics) RecordPersisted(context.Context, int, int, int) {}
