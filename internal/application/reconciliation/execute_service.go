package reconciliation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
	"github.com/sellerhub/backend/internal/infrastructure/logger"
	"github.com/sellerhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ExecuteService persists a reconciliation run into the canonical catalog
type ExecuteService interface {
	// Execute runs the full pipeline and persists the outcome: one canonical
	// product per group, one per single. It requires the seller's exclusive
	// lease; shared.ErrSellerLocked is returned before any write when another
	// run holds it. A group whose transaction fails is recorded in the report
	// and never aborts the rest of the run.
	Execute(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code, opts RunOptions, progress ProgressFunc) (*ExecutionReport, error)
}

// ExecuteServiceImpl implements ExecuteService
type ExecuteServiceImpl struct {
	pipeline pipeline
	repo     reconciliation.ReconciledProductRepository
	lease    SellerLease
	metrics  RunMetrics
	logger   *zap.Logger
}

// NewExecuteService creates a new ExecuteServiceImpl
func NewExecuteService(
	fetcher CatalogFetcher,
	normalizer *reconciliation.Normalizer,
	repo reconciliation.ReconciledProductRepository,
	lease SellerLease,
	metrics RunMetrics,
	logger *zap.Logger,
) *ExecuteServiceImpl {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecuteServiceImpl{
		pipeline: pipeline{fetcher: fetcher, normalizer: normalizer, logger: logger},
		repo:     repo,
		lease:    lease,
		metrics:  metrics,
		logger:   logger,
	}
}

// persistence progress starts after fetch/normalize/group
const pipelinePercent = 20

// Execute acquires the seller lease, runs the pipeline, then persists groups
// and singles one transaction each. Cancellation is honored between unit
// transactions only: a write already in flight always commits or rolls back
// on its own terms.
func (s *ExecuteServiceImpl) Execute(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code, opts RunOptions, progress ProgressFunc) (*ExecutionReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "execute")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSellerID, sellerID.String(),
		telemetry.SpanAttrMarketplaces, len(codes),
	)

	codes, err := validateMarketplaces(codes)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	handle, err := s.lease.Acquire(ctx, sellerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if err := handle.Release(context.WithoutCancel(ctx)); err != nil {
			logger.WithLogger(ctx, s.logger).Warn("failed to release seller lease",
				zap.Error(err),
			)
		}
	}()

	out, err := s.pipeline.run(ctx, sellerID, codes, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result := out.result
	progress.report(pipelinePercent)

	report := &ExecutionReport{
		SellerID:    sellerID,
		GeneratedAt: time.Now(),
		FetchErrors: out.fetchErrors,
		Warnings:    out.warnings,
	}

	// Persistence units: every group, then every single as a one-listing
	// canonical product. Iteration order is deterministic: groups in emit
	// order, singles by marketplace code.
	units := make([][]*reconciliation.NormalizedProduct, 0, len(result.Groups)+result.SingleCount())
	for _, g := range result.Groups {
		units = append(units, g.Products)
	}
	for _, code := range sortedSingleCodes(result.Singles) {
		for _, p := range result.Singles[code] {
			units = append(units, []*reconciliation.NormalizedProduct{p})
		}
	}

	for i, members := range units {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordPersisted(ctx, report.Saved, report.Skipped, len(report.Errors))
			return report, err
		}

		// The unit transaction must never be torn down mid-flight by a
		// cooperative cancel.
		writeCtx := context.WithoutCancel(ctx)
		saved, err := s.persistUnit(writeCtx, sellerID, members, opts.OverwriteExisting)
		switch {
		case err != nil:
			report.Errors = append(report.Errors, ExecutionError{
				Product:      members[0].Name,
				Marketplaces: memberMarketplaces(members),
				Message:      err.Error(),
			})
			logger.WithLogger(ctx, s.logger).Error("group persistence failed",
				zap.String("product", members[0].Name),
				zap.Error(err),
			)
		case saved:
			report.Saved++
		default:
			report.Skipped++
		}

		progress.report(pipelinePercent + (100-pipelinePercent)*(i+1)/len(units))
	}

	s.metrics.RecordPersisted(ctx, report.Saved, report.Skipped, len(report.Errors))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaved, report.Saved,
		telemetry.SpanAttrSkipped, report.Skipped,
	)
	logger.WithLogger(ctx, s.logger).Info("execution completed",
		zap.Int("saved", report.Saved),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// persistUnit writes one group (or single) as one canonical product plus its
// listings, in one repository transaction. The master member is the first in
// claim order; an existing canonical product is reused when found by name or
// by any member's marketplace SKU.
func (s *ExecuteServiceImpl) persistUnit(ctx context.Context, sellerID uuid.UUID, members []*reconciliation.NormalizedProduct, overwrite bool) (bool, error) {
	master := members[0]

	existing, err := s.findExisting(ctx, sellerID, members)
	if err != nil {
		return false, err
	}

	now := time.Now()
	if existing == nil {
		product, err := reconciliation.NewReconciledProduct(sellerID, master)
		if err != nil {
			return false, err
		}
		for _, member := range members {
			product.UpsertListing(member, true, now)
		}
		product.RecalculateTotalStock()
		return true, s.repo.SaveGroup(ctx, product)
	}

	changed := false
	if overwrite {
		existing.ApplyMaster(master)
		changed = true
	}
	for _, member := range members {
		if existing.UpsertListing(member, overwrite, now) {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	existing.RecalculateTotalStock()
	return true, s.repo.SaveGroup(ctx, existing)
}

// findExisting looks the canonical product up by the master's name first, then
// by each member's marketplace SKU. Not-found is not an error here.
func (s *ExecuteServiceImpl) findExisting(ctx context.Context, sellerID uuid.UUID, members []*reconciliation.NormalizedProduct) (*reconciliation.ReconciledProduct, error) {
	product, err := s.repo.FindByName(ctx, sellerID, members[0].Name)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	for _, member := range members {
		if member.SKU == "" {
			continue
		}
		product, err := s.repo.FindByListingSKU(ctx, sellerID, member.Marketplace, member.SKU)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func sortedSingleCodes(singles map[marketplace.Code][]*reconciliation.NormalizedProduct) []marketplace.Code {
	codes := make([]marketplace.Code, 0, len(singles))
	for code := range singles {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func memberMarketplaces(members []*reconciliation.NormalizedProduct) []marketplace.Code {
	codes := make([]marketplace.Code, 0, len(members))
	for _, m := range members {
		codes = append(codes, m.Marketplace)
	}
	return codes
}

// Ensure ExecuteServiceImpl implements ExecuteService
var _ ExecuteService = (*ExecuteServiceImpl)(nil)
