package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/shopspring/decimal"
)

// RunOptions carries the caller-tunable knobs of a reconciliation run. The
// zero value means defaults: similarity threshold 0.85, transitive grouping,
// no overwrite.
type RunOptions struct {
	// StrictMatching disables the fuzzy name-similarity criterion
	StrictMatching bool `json:"strict_matching"`
	// SimilarityThreshold overrides the fuzzy-match threshold; 0 means default
	SimilarityThreshold float64 `json:"similarity_threshold"`
	// IgnoreBrand skips brand agreement checks entirely
	IgnoreBrand bool `json:"ignore_brand"`
	// SeedScanGrouping selects the legacy single-pass grouping policy instead
	// of transitive union-find
	SeedScanGrouping bool `json:"seed_scan_grouping"`
	// OverwriteExisting lets execute update canonical products and listings
	// that already exist; otherwise existing records are left untouched
	OverwriteExisting bool `json:"overwrite_existing"`
}

// matchingOptions translates the DTO into the engine's immutable options value
func (o RunOptions) matchingOptions() reconciliation.MatchingOptions {
	opts := reconciliation.DefaultMatchingOptions()
	opts.StrictMatching = o.StrictMatching
	opts.IgnoreBrand = o.IgnoreBrand
	opts.TransitiveGrouping = !o.SeedScanGrouping
	if o.SimilarityThreshold != 0 {
		opts.SimilarityThreshold = o.SimilarityThreshold
	}
	return opts
}

// ProductSummary is the serializable view of one normalized listing
type ProductSummary struct {
	Marketplace marketplace.Code             `json:"marketplace"`
	ExternalID  string                       `json:"external_id"`
	SKU         string                       `json:"sku,omitempty"`
	Barcode     string                       `json:"barcode,omitempty"`
	Name        string                       `json:"name"`
	Brand       string                       `json:"brand,omitempty"`
	Price       decimal.Decimal              `json:"price"`
	Stock       int64                        `json:"stock"`
	Status      reconciliation.ListingStatus `json:"status"`
}

func summarize(p *reconciliation.NormalizedProduct) ProductSummary {
	return ProductSummary{
		Marketplace: p.Marketplace,
		ExternalID:  p.ExternalID,
		SKU:         p.SKU,
		Barcode:     p.Barcode,
		Name:        p.Name,
		Brand:       p.Brand,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      p.Status,
	}
}

// GroupSummary is the serializable view of one product group
type GroupSummary struct {
	Products      []ProductSummary                `json:"products"`
	Confidence    float64                         `json:"confidence"`
	MatchCriteria []reconciliation.MatchCriterion `json:"match_criteria"`
	Conflicts     []reconciliation.Conflict       `json:"conflicts,omitempty"`
}

func summarizeGroups(groups []reconciliation.ProductGroup) []GroupSummary {
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		summary := GroupSummary{
			Products:      make([]ProductSummary, 0, len(g.Products)),
			Confidence:    g.Confidence,
			MatchCriteria: g.MatchCriteria,
			Conflicts:     g.Conflicts,
		}
		for _, p := range g.Products {
			summary.Products = append(summary.Products, summarize(p))
		}
		out = append(out, summary)
	}
	return out
}

func summarizeSingles(singles map[marketplace.Code][]*reconciliation.NormalizedProduct) map[marketplace.Code][]ProductSummary {
	out := make(map[marketplace.Code][]ProductSummary, len(singles))
	for code, products := range singles {
		summaries := make([]ProductSummary, 0, len(products))
		for _, p := range products {
			summaries = append(summaries, summarize(p))
		}
		out[code] = summaries
	}
	return out
}

// AnalysisReport is the two-source reconciliation report
type AnalysisReport struct {
	SellerID    uuid.UUID        `json:"seller_id"`
	Source      marketplace.Code `json:"source"`
	Target      marketplace.Code `json:"target"`
	GeneratedAt time.Time        `json:"generated_at"`

	Matched    int `json:"matched"`
	SourceOnly int `json:"source_only"`
	TargetOnly int `json:"target_only"`
	Conflicts  int `json:"conflicts"`
	Duplicates int `json:"duplicates"`

	Groups          []GroupSummary                      `json:"groups"`
	Recommendations []reconciliation.SyncRecommendation `json:"recommendations"`
	NextSteps       []reconciliation.NextStep           `json:"next_steps"`
	Errors          []FetchError                        `json:"errors,omitempty"`
	Warnings        []reconciliation.Warning            `json:"warnings,omitempty"`
}

// ReconcileReport is the N-source reconciliation report
type ReconcileReport struct {
	SellerID     uuid.UUID          `json:"seller_id"`
	Marketplaces []marketplace.Code `json:"marketplaces"`
	GeneratedAt  time.Time          `json:"generated_at"`

	Groups          []GroupSummary                        `json:"groups"`
	Singles         map[marketplace.Code][]ProductSummary `json:"singles"`
	Duplicates      []reconciliation.ProductIdentity      `json:"duplicates,omitempty"`
	Recommendations []reconciliation.SyncRecommendation   `json:"recommendations"`
	NextSteps       []reconciliation.NextStep             `json:"next_steps"`
	Errors          []FetchError                          `json:"errors,omitempty"`
	Warnings        []reconciliation.Warning              `json:"warnings,omitempty"`
}

// ExecutionError reports one group or single whose persistence failed
type ExecutionError struct {
	// Product names the canonical product the failed write was for
	Product string `json:"product"`
	// Marketplaces lists the marketplaces involved in the failed group
	Marketplaces []marketplace.Code `json:"marketplaces,omitempty"`
	Message      string             `json:"message"`
}

// ExecutionReport is the outcome of persisting one reconciliation run
type ExecutionReport struct {
	SellerID    uuid.UUID `json:"seller_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Saved   int              `json:"saved"`
	Skipped int              `json:"skipped"`
	Errors  []ExecutionError `json:"errors,omitempty"`

	FetchErrors []FetchError             `json:"fetch_errors,omitempty"`
	Warnings    []reconciliation.Warning `json:"warnings,omitempty"`
}
