package reconciliation

import (
	"fmt"

	"github.com/sellerhub/backend/internal/domain/shared"
)

// MatchCriterion names the signal that decided a pairwise match
type MatchCriterion string

const (
	CriterionExactSKU       MatchCriterion = "exact_sku"
	CriterionBarcode        MatchCriterion = "barcode"
	CriterionBrandName      MatchCriterion = "brand_name"
	CriterionNameSimilarity MatchCriterion = "name_similarity"
	CriterionNone           MatchCriterion = "none"
)

// Confidence levels per criterion. Stronger identity signals are evaluated
// first and are never overridden by weaker ones.
const (
	confidenceExactSKU  = 1.0
	confidenceBarcode   = 0.95
	confidenceBrandName = 0.90

	// brandMismatchPenalty discounts a fuzzy name match when brands disagree
	brandMismatchPenalty = 0.8

	// minNormalizedSKULen guards against trivially short SKUs colliding
	minNormalizedSKULen = 4
	// minBarcodeLen guards against short placeholder codes matching each other
	minBarcodeLen = 8
)

// DefaultSimilarityThreshold is the fuzzy name matching cutoff when the caller
// does not set one.
const DefaultSimilarityThreshold = 0.85

// MatchResult is the outcome of comparing two normalized products
type MatchResult struct {
	// Criterion is the signal that fired, or CriterionNone
	Criterion MatchCriterion `json:"criterion"`
	// Confidence is in [0,1]; zero exactly when Criterion is none
	Confidence float64 `json:"confidence"`
}

// IsMatch returns true when any criterion fired
func (r MatchResult) IsMatch() bool {
	return r.Criterion != CriterionNone
}

// MatchingOptions is the one immutable options value threaded explicitly
// through every matching, grouping, and recommendation call. It is never read
// from ambient state.
type MatchingOptions struct {
	// StrictMatching disables the fuzzy name similarity step
	StrictMatching bool `json:"strict_matching"`
	// SimilarityThreshold is the minimum fuzzy name similarity, in (0,1]
	SimilarityThreshold float64 `json:"similarity_threshold"`
	// IgnoreBrand skips every brand comparison
	IgnoreBrand bool `json:"ignore_brand"`
	// TransitiveGrouping selects the grouping policy: true groups by
	// union-find equivalence classes, false reproduces the single-pass seed
	// scan that only links direct matches of the seed.
	TransitiveGrouping bool `json:"transitive_grouping"`
}

// DefaultMatchingOptions returns the standard options
func DefaultMatchingOptions() MatchingOptions {
	return MatchingOptions{
		SimilarityThreshold: DefaultSimilarityThreshold,
		TransitiveGrouping:  true,
	}
}

// Validate checks the options contract. Invalid options are a caller bug and
// fatal for the run.
func (o MatchingOptions) Validate() error {
	if o.SimilarityThreshold <= 0 || o.SimilarityThreshold > 1 {
		return shared.NewDomainError("INVALID_OPTIONS",
			fmt.Sprintf("Similarity threshold must be in (0,1], got %v", o.SimilarityThreshold))
	}
	return nil
}

// Match decides whether two normalized products represent the same real-world
// product. Criteria are evaluated in strict priority order and the first hit
// wins. The result depends only on the normalized fields of both sides, so
// Match(a, b) == Match(b, a).
func Match(a, b *NormalizedProduct, opts MatchingOptions) MatchResult {
	// 1. Exact SKU
	skuA, skuB := NormalizeSKU(a.SKU), NormalizeSKU(b.SKU)
	if len(skuA) >= minNormalizedSKULen && skuA == skuB {
		return MatchResult{Criterion: CriterionExactSKU, Confidence: confidenceExactSKU}
	}

	// 2. Barcode, raw equality
	if len(a.Barcode) >= minBarcodeLen && a.Barcode == b.Barcode {
		return MatchResult{Criterion: CriterionBarcode, Confidence: confidenceBarcode}
	}

	nameA, nameB := NormalizeName(a.Name), NormalizeName(b.Name)

	// 3. Brand + name exact
	if !opts.IgnoreBrand && a.Brand != "" && b.Brand != "" {
		if NormalizeBrand(a.Brand) == NormalizeBrand(b.Brand) && nameA != "" && nameA == nameB {
			return MatchResult{Criterion: CriterionBrandName, Confidence: confidenceBrandName}
		}
	}

	// 4. Fuzzy name similarity
	if !opts.StrictMatching {
		if sim := NameSimilarity(nameA, nameB); sim >= opts.SimilarityThreshold {
			confidence := sim
			if !brandsAgree(a, b, opts) {
				confidence = sim * brandMismatchPenalty
			}
			return MatchResult{Criterion: CriterionNameSimilarity, Confidence: confidence}
		}
	}

	return MatchResult{Criterion: CriterionNone, Confidence: 0}
}

// brandsAgree returns true when the brand signal does not contradict the
// match: brands equal after normalization, either side missing, or brand
// comparison disabled.
func brandsAgree(a, b *NormalizedProduct, opts MatchingOptions) bool {
	if opts.IgnoreBrand || a.Brand == "" || b.Brand == "" {
		return true
	}
	return NormalizeBrand(a.Brand) == NormalizeBrand(b.Brand)
}
