package reconciliation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/shopspring/decimal"
)

// RecommendationType classifies one actionable unit of the sync plan
type RecommendationType string

const (
	// RecommendationSyncMissing pushes a product that exists only on the
	// reference side to the marketplaces lacking it
	RecommendationSyncMissing RecommendationType = "sync_missing"
	// RecommendationImportMissing pulls a product that exists only on a
	// non-reference marketplace back into the reference side
	RecommendationImportMissing RecommendationType = "import_missing"
	// RecommendationResolveConflict routes a conflicted group to manual review
	RecommendationResolveConflict RecommendationType = "resolve_conflict"
	// RecommendationMonitoring is the all-clear terminal state
	RecommendationMonitoring RecommendationType = "monitoring"
)

// Priority orders recommendations for the seller
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func priorityFromSeverity(s Severity) Priority {
	switch s {
	case SeverityHigh:
		return PriorityHigh
	case SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// SyncRecommendation is one actionable unit derived from a group or an
// unmatched product.
type SyncRecommendation struct {
	Type               RecommendationType `json:"type"`
	TargetMarketplaces []marketplace.Code `json:"target_marketplaces,omitempty"`
	Priority           Priority           `json:"priority"`
	Description        string             `json:"description"`
	Count              int                `json:"count,omitempty"`
	EstimatedTime      string             `json:"estimated_time,omitempty"`
	Suggestions        []string           `json:"suggestions,omitempty"`
}

// NextStep is one concrete follow-up operation in the ordered plan
type NextStep struct {
	Order         int    `json:"order"`
	Action        string `json:"action"`
	EstimatedTime string `json:"estimated_time"`
}

// SyncPlan is the full output of the recommendation generator
type SyncPlan struct {
	Recommendations []SyncRecommendation `json:"recommendations"`
	NextSteps       []NextStep           `json:"next_steps"`
}

// minutesPerProduct is the manual-sync effort estimate used in time hints
const minutesPerProduct = 2

// Recommend turns grouping output into a prioritized, human-actionable sync
// plan. Pure transformation, no I/O.
//
// When reference is non-nil, singles on the reference marketplace become
// sync_missing recommendations toward the other participating marketplaces and
// singles elsewhere become import_missing recommendations toward the
// reference; with a nil reference every single becomes sync_missing toward the
// other marketplaces. Conflicted groups become resolve_conflict
// recommendations at the severity-derived priority. A run with no singles and
// no conflicts produces exactly one monitoring recommendation and one step.
func Recommend(result *GroupingResult, participants []marketplace.Code, reference *marketplace.Code) *SyncPlan {
	plan := &SyncPlan{}

	codes := make([]marketplace.Code, 0, len(result.Singles))
	for code := range result.Singles {
		if len(result.Singles[code]) > 0 {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	for _, code := range codes {
		singles := result.Singles[code]
		targets := otherMarketplaces(participants, code)
		if len(targets) == 0 {
			continue
		}

		recType := RecommendationSyncMissing
		if reference != nil && code != *reference {
			recType = RecommendationImportMissing
			targets = []marketplace.Code{*reference}
		}

		plan.Recommendations = append(plan.Recommendations, SyncRecommendation{
			Type:               recType,
			TargetMarketplaces: targets,
			Priority:           PriorityHigh,
			Description: fmt.Sprintf("%d product(s) exist only on %s and are missing from %s",
				len(singles), code.DisplayName(), displayNames(targets)),
			Count:         len(singles),
			EstimatedTime: estimate(len(singles)),
		})
	}

	for _, group := range result.ConflictedGroups() {
		plan.Recommendations = append(plan.Recommendations, SyncRecommendation{
			Type:        RecommendationResolveConflict,
			Priority:    priorityFromSeverity(group.MaxConflictSeverity()),
			Description: fmt.Sprintf("%q disagrees across %s", group.Products[0].Name, displayNames(group.Marketplaces())),
			Count:       len(group.Conflicts),
			Suggestions: conflictSuggestions(&group),
		})
	}

	if len(plan.Recommendations) == 0 {
		plan.Recommendations = append(plan.Recommendations, SyncRecommendation{
			Type:        RecommendationMonitoring,
			Priority:    PriorityLow,
			Description: "All marketplaces agree; keep monitoring for drift",
		})
	}

	plan.NextSteps = nextSteps(plan.Recommendations)
	return plan
}

// conflictSuggestions produces field-specific resolution options with the
// rationale stated.
func conflictSuggestions(group *ProductGroup) []string {
	var suggestions []string
	var sawPrice, sawStock bool

	for _, c := range group.Conflicts {
		switch c.Field {
		case "price":
			sawPrice = true
		case "stock":
			sawStock = true
		}
	}

	if sawPrice {
		low, high := priceRange(group.Products)
		suggestions = append(suggestions,
			fmt.Sprintf("use lower price %s everywhere (stays competitive)", low),
			fmt.Sprintf("use higher price %s everywhere (protects margin)", high),
		)
	}
	if sawStock {
		suggestions = append(suggestions,
			fmt.Sprintf("use max stock %d everywhere (stock counts drift, the highest is usually freshest)", maxStock(group.Products)),
		)
	}
	return suggestions
}

func priceRange(products []*NormalizedProduct) (low, high decimal.Decimal) {
	low, high = products[0].Price, products[0].Price
	for _, p := range products[1:] {
		low = decimal.Min(low, p.Price)
		high = decimal.Max(high, p.Price)
	}
	return low, high
}

func maxStock(products []*NormalizedProduct) int64 {
	var max int64
	for _, p := range products {
		if p.Stock > max {
			max = p.Stock
		}
	}
	return max
}

// nextSteps emits one ordered step per recommendation type present
func nextSteps(recs []SyncRecommendation) []NextStep {
	counts := make(map[RecommendationType]int)
	products := make(map[RecommendationType]int)
	for _, r := range recs {
		counts[r.Type]++
		products[r.Type] += r.Count
	}

	var steps []NextStep
	add := func(action, estimated string) {
		steps = append(steps, NextStep{Order: len(steps) + 1, Action: action, EstimatedTime: estimated})
	}

	if n := counts[RecommendationResolveConflict]; n > 0 {
		add(fmt.Sprintf("review and resolve %d conflicted group(s)", n), estimate(products[RecommendationResolveConflict]))
	}
	if n := products[RecommendationSyncMissing]; n > 0 {
		add(fmt.Sprintf("create %d missing listing(s) on target marketplaces", n), estimate(n))
	}
	if n := products[RecommendationImportMissing]; n > 0 {
		add(fmt.Sprintf("import %d listing(s) back to the reference marketplace", n), estimate(n))
	}
	if counts[RecommendationMonitoring] > 0 {
		add("schedule the next reconciliation run", "5 minutes")
	}
	return steps
}

func estimate(productCount int) string {
	if productCount <= 0 {
		return "5 minutes"
	}
	return fmt.Sprintf("~%d minutes", productCount*minutesPerProduct)
}

func otherMarketplaces(participants []marketplace.Code, exclude marketplace.Code) []marketplace.Code {
	var out []marketplace.Code
	for _, c := range participants {
		if c != exclude {
			out = append(out, c)
		}
	}
	return out
}

func displayNames(codes []marketplace.Code) string {
	names := make([]string, 0, len(codes))
	for _, c := range codes {
		names = append(names, c.DisplayName())
	}
	return strings.Join(names, ", ")
}
