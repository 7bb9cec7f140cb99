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

// AnalyzeService is the two-source reconciliation analysis
type AnalyzeService interface {
	// Analyze compares the seller's catalogs on two marketplaces and reports
	// matches, one-sided products, conflicts and the resulting sync plan.
	// Read-only: never writes to the canonical catalog.
	Analyze(ctx context.Context, sellerID uuid.UUID, source, target marketplace.Code, opts RunOptions) (*AnalysisReport, error)
}

// AnalyzeServiceImpl implements AnalyzeService
type AnalyzeServiceImpl struct {
	pipeline pipeline
	metrics  RunMetrics
	logger   *zap.Logger
}

// NewAnalyzeService creates a new AnalyzeServiceImpl
func NewAnalyzeService(fetcher CatalogFetcher, normalizer *reconciliation.Normalizer, metrics RunMetrics, logger *zap.Logger) *AnalyzeServiceImpl {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeServiceImpl{
		pipeline: pipeline{fetcher: fetcher, normalizer: normalizer, logger: logger},
		metrics:  metrics,
		logger:   logger,
	}
}

// Analyze runs the two-source specialization of the reconciliation pipeline,
// with source acting as the reference marketplace for recommendations.
func (s *AnalyzeServiceImpl) Analyze(ctx context.Context, sellerID uuid.UUID, source, target marketplace.Code, opts RunOptions) (*AnalysisReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "analyze")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSellerID, sellerID.String(),
		"source", source.String(),
		"target", target.String(),
	)

	codes, err := validateMarketplaces([]marketplace.Code{source, target})
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

	plan := reconciliation.Recommend(result, codes, &source)
	s.metrics.RecordRun(ctx, len(codes))
	s.metrics.RecordGrouping(ctx, len(result.Groups), result.SingleCount(), len(result.ConflictedGroups()))

	report := &AnalysisReport{
		SellerID:    sellerID,
		Source:      source,
		Target:      target,
		GeneratedAt: time.Now(),

		Matched:    len(result.Groups),
		SourceOnly: len(result.Singles[source]),
		TargetOnly: len(result.Singles[target]),
		Conflicts:  len(result.ConflictedGroups()),
		Duplicates: len(result.Duplicates),

		Groups:          summarizeGroups(result.Groups),
		Recommendations: plan.Recommendations,
		NextSteps:       plan.NextSteps,
		Errors:          out.fetchErrors,
		Warnings:        out.warnings,
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrGroups, report.Matched,
		telemetry.SpanAttrConflicted, report.Conflicts,
	)
	// Trace, request and seller correlation comes from the context.
	logger.WithLogger(ctx, s.logger).Info("analysis completed",
		zap.String("source", source.String()),
		zap.String("target", target.String()),
		zap.Int("matched", report.Matched),
		zap.Int("source_only", report.SourceOnly),
		zap.Int("target_only", report.TargetOnly),
		zap.Int("conflicts", report.Conflicts),
	)
	return report, nil
}

// Ensure AnalyzeServiceImpl implements AnalyzeService
var _ AnalyzeService = (*AnalyzeServiceImpl)(nil)
