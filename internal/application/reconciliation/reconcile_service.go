package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/infrastructure/logger"
	"github.com/sellerhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconcileService is the N-source reconciliation run
type ReconcileService interface {
	// ReconcileAll groups the seller's catalogs across all named marketplaces
	// and returns the full report. Read-only.
	ReconcileAll(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code, opts RunOptions) (*ReconcileReport, error)
}

// ReconcileServiceImpl implements ReconcileService
type ReconcileServiceImpl struct {
	pipeline pipeline
	metrics  RunMetrics
	logger   *zap.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl
func NewReconcileService(fetcher CatalogFetcher, normalizer *reconciliation.Normalizer, metrics RunMetrics, logger *zap.Logger) *ReconcileServiceImpl {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileServiceImpl{
		pipeline: pipeline{fetcher: fetcher, normalizer: normalizer, logger: logger},
		metrics:  metrics,
		logger:   logger,
	}
}

// ReconcileAll runs the pipeline over every named marketplace. Without a
// reference marketplace every single becomes a sync_missing recommendation
// toward the others.
func (s *ReconcileServiceImpl) ReconcileAll(ctx context.Context, sellerID uuid.UUID, codes []marketplace.Code, opts RunOptions) (*ReconcileReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile_all")
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

	out, err := s.pipeline.run(ctx, sellerID, codes, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result := out.result

	plan := reconciliation.Recommend(result, codes, nil)
	s.metrics.RecordRun(ctx, len(codes))
	s.metrics.RecordGrouping(ctx, len(result.Groups), result.SingleCount(), len(result.ConflictedGroups()))

	report := &ReconcileReport{
		SellerID:     sellerID,
		Marketplaces: codes,
		GeneratedAt:  time.Now(),

		Groups:          summarizeGroups(result.Groups),
		Singles:         summarizeSingles(result.Singles),
		Duplicates:      result.Duplicates,
		Recommendations: plan.Recommendations,
		NextSteps:       plan.NextSteps,
		Errors:          out.fetchErrors,
		Warnings:        out.warnings,
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrGroups, len(result.Groups),
		telemetry.SpanAttrSingles, result.SingleCount(),
		telemetry.SpanAttrConflicted, len(result.ConflictedGroups()),
	)
	logger.WithLogger(ctx, s.logger).Info("reconciliation run completed",
		zap.Int("marketplaces", len(codes)),
		zap.Int("groups", len(result.Groups)),
		zap.Int("singles", result.SingleCount()),
		zap.Int("conflicted", len(result.ConflictedGroups())),
	)
	return report, nil
}

// Ensure ReconcileServiceImpl implements ReconcileService
var _ ReconcileService = (*ReconcileServiceImpl)(nil)
