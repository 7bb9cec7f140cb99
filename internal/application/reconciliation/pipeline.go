package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
	"github.com/sellerhub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// pipeline runs the fetch → normalize → group stages shared by analyze,
// reconcile and execute. Fetch failures and dropped records accumulate into
// the run's errors/warnings; only contract violations abort the run.
type pipeline struct {
	fetcher    CatalogFetcher
	normalizer *reconciliation.Normalizer
	logger     *zap.Logger
}

// pipelineOutput is the grouping result plus everything the report needs to
// surface about how the run went.
type pipelineOutput struct {
	result      *reconciliation.GroupingResult
	fetchErrors []FetchError
	warnings    []reconciliation.Warning
}

func (p *pipeline) run(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code, opts RunOptions) (*pipelineOutput, error) {
	matching := opts.matchingOptions()
	if err := matching.Validate(); err != nil {
		return nil, err
	}

	records, fetchErrors := p.fetcher.FetchAll(ctx, sellerID, codes)
	for _, fe := range fetchErrors {
		logger.WithLogger(ctx, p.logger).Warn("marketplace fetch failed, continuing without it",
			zap.String("marketplace", fe.Marketplace.String()),
			zap.String("error", fe.Message),
		)
	}

	bySource := make(map[marketplace.Code][]*reconciliation.NormalizedProduct, len(records))
	var warnings []reconciliation.Warning
	for _, code := range codes {
		products, batchWarnings, err := p.normalizer.NormalizeBatch(code, records[code])
		if err != nil {
			return nil, err
		}
		bySource[code] = products
		warnings = append(warnings, batchWarnings...)
	}

	result, err := reconciliation.Group(bySource, matching)
	if err != nil {
		return nil, err
	}

	return &pipelineOutput{
		result:      result,
		fetchErrors: fetchErrors,
		warnings:    warnings,
	}, nil
}

// validateMarketplaces checks that the run names at least two distinct, known
// marketplaces and returns the deduplicated list in request order.
func validateMarketplaces(codes []marketplace.Code) ([]marketplace.Code, error) {
	seen := make(map[marketplace.Code]bool, len(codes))
	out := make([]marketplace.Code, 0, len(codes))
	for _, code := range codes {
		if !code.IsValid() {
			return nil, shared.NewDomainError("INVALID_MARKETPLACE", "Unknown marketplace: "+code.String())
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	if len(out) < 2 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Reconciliation requires at least two distinct marketplaces")
	}
	return out, nil
}
