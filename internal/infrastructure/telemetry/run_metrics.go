// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
)

// ReconciliationMetrics records reconciliation run outcomes as OpenTelemetry
// counters. It satisfies the application layer's RunMetrics port; all methods
// are safe for concurrent use.
type ReconciliationMetrics struct {
	runsTotal            *Counter
	marketplacesFetched  *Counter
	groupsTotal          *Counter
	singlesTotal         *Counter
	conflictedTotal      *Counter
	productsSavedTotal   *Counter
	productsSkippedTotal *Counter
	persistFailuresTotal *Counter
}

// NewReconciliationMetrics creates the reconciliation counters on the given
// meter. A meter from a disabled MeterProvider records into the no-op global
// meter, which is the intended wiring when telemetry is off.
func NewReconciliationMetrics(meter metric.Meter) (*ReconciliationMetrics, error) {
	if meter == nil {
		return nil, errors.New("meter cannot be nil")
	}

	rm := &ReconciliationMetrics{}
	var err error

	rm.runsTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_runs_total",
		"Total number of completed reconciliation runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	rm.marketplacesFetched, err = NewCounter(
		meter,
		"sellerhub_reconciliation_marketplaces_fetched_total",
		"Total number of marketplace catalogs pulled across all runs",
		"{marketplaces}",
	)
	if err != nil {
		return nil, err
	}

	rm.groupsTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_groups_total",
		"Total number of cross-marketplace product groups formed",
		"{groups}",
	)
	if err != nil {
		return nil, err
	}

	rm.singlesTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_singles_total",
		"Total number of products left unmatched on a single marketplace",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	rm.conflictedTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_conflicted_groups_total",
		"Total number of groups formed with at least one field conflict",
		"{groups}",
	)
	if err != nil {
		return nil, err
	}

	rm.productsSavedTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_products_saved_total",
		"Total number of canonical products written by execute runs",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	rm.productsSkippedTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_products_skipped_total",
		"Total number of unchanged products skipped by execute runs",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	rm.persistFailuresTotal, err = NewCounter(
		meter,
		"sellerhub_reconciliation_persist_failures_total",
		"Total number of product groups whose persistence transaction failed",
		"{groups}",
	)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// RecordRun records one completed analyze/reconcile run over n marketplaces.
func (rm *ReconciliationMetrics) RecordRun(ctx context.Context, marketplaces int) {
	rm.runsTotal.Inc(ctx)
	rm.marketplacesFetched.Add(ctx, int64(marketplaces))
}

// RecordGrouping records the grouping outcome of one run.
func (rm *ReconciliationMetrics) RecordGrouping(ctx context.Context, groups, singles, conflicted int) {
	rm.groupsTotal.Add(ctx, int64(groups))
	rm.singlesTotal.Add(ctx, int64(singles))
	rm.conflictedTotal.Add(ctx, int64(conflicted))
}

// RecordPersisted records the persistence outcome of one execute run.
func (rm *ReconciliationMetrics) RecordPersisted(ctx context.Context, saved, skipped, failed int) {
	rm.productsSavedTotal.Add(ctx, int64(saved))
	rm.productsSkippedTotal.Add(ctx, int64(skipped))
	rm.persistFailuresTotal.Add(ctx, int64(failed))
}
