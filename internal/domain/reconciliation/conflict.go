package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Severity classifies how urgent a conflict is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityRank orders severities for max comparisons
func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the higher of two severities
func MaxSeverity(a, b Severity) Severity {
	if severityRank(b) > severityRank(a) {
		return b
	}
	return a
}

// Conflict is a single attribute disagreement between two listings already
// judged to be the same product.
type Conflict struct {
	// Field is the disagreeing attribute
	Field string `json:"field"`
	// SourceValue is the value on the first listing
	SourceValue string `json:"source_value"`
	// TargetValue is the value on the second listing
	TargetValue string `json:"target_value"`
	// Difference is the absolute delta, as a display string
	Difference string `json:"difference"`
	// Severity classifies the conflict
	Severity Severity `json:"severity"`
}

// ConflictReport is the result of comparing the attributes of one matched pair
type ConflictReport struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// priceToleranceRatio: a price delta within 10% of the higher price is noise,
// anything above it is a conflict. The boundary itself is not flagged.
var priceToleranceRatio = decimal.NewFromFloat(0.1)

// stockTolerance: stock deltas of up to 5 units are considered drift
const stockTolerance = 5

// conflictRule checks one attribute of a matched pair. New fields are added by
// appending rules; existing rule semantics never change.
type conflictRule func(a, b *NormalizedProduct) *Conflict

var conflictRules = []conflictRule{
	priceConflict,
	stockConflict,
}

// DetectConflicts reports attribute-level disagreements between two products
// that the matcher already judged to be the same. A pair with zero conflicts
// is a clean match and may be auto-synced; a pair with any conflict is routed
// to manual review.
func DetectConflicts(a, b *NormalizedProduct) ConflictReport {
	var conflicts []Conflict
	for _, rule := range conflictRules {
		if c := rule(a, b); c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	return ConflictReport{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}
}

func priceConflict(a, b *NormalizedProduct) *Conflict {
	maxPrice := decimal.Max(a.Price, b.Price)
	diff := a.Price.Sub(b.Price).Abs()
	if !diff.GreaterThan(maxPrice.Mul(priceToleranceRatio)) {
		return nil
	}
	return &Conflict{
		Field:       "price",
		SourceValue: a.Price.String(),
		TargetValue: b.Price.String(),
		Difference:  diff.String(),
		Severity:    SeverityMedium,
	}
}

func stockConflict(a, b *NormalizedProduct) *Conflict {
	diff := a.Stock - b.Stock
	if diff < 0 {
		diff = -diff
	}
	if diff <= stockTolerance {
		return nil
	}
	return &Conflict{
		Field:       "stock",
		SourceValue: fmt.Sprintf("%d", a.Stock),
		TargetValue: fmt.Sprintf("%d", b.Stock),
		Difference:  fmt.Sprintf("%d", diff),
		Severity:    SeverityLow,
	}
}
