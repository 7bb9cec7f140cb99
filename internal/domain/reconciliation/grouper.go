package reconciliation

import (
	"sort"

	"github.com/sellerhub/backend/internal/domain/marketplace"
)

// ProductGroup is a set of normalized products believed to be the same
// real-world product, at most one per marketplace, at least two members.
type ProductGroup struct {
	// Products are the members, in deterministic source order
	Products []*NormalizedProduct `json:"products"`
	// Confidence is the minimum pairwise confidence recorded while the group formed
	Confidence float64 `json:"confidence"`
	// MatchCriteria collects every criterion that fired while the group formed
	MatchCriteria []MatchCriterion `json:"match_criteria"`
	// Conflicts are the attribute disagreements among matched member pairs
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// HasConflicts returns true when any member pair disagrees on an attribute
func (g *ProductGroup) HasConflicts() bool {
	return len(g.Conflicts) > 0
}

// MaxConflictSeverity returns the highest severity among the group's conflicts
func (g *ProductGroup) MaxConflictSeverity() Severity {
	var max Severity
	for _, c := range g.Conflicts {
		max = MaxSeverity(max, c.Severity)
	}
	return max
}

// Marketplaces returns the marketplaces represented in the group
func (g *ProductGroup) Marketplaces() []marketplace.Code {
	codes := make([]marketplace.Code, 0, len(g.Products))
	for _, p := range g.Products {
		codes = append(codes, p.Marketplace)
	}
	return codes
}

// GroupingResult partitions the pooled products: every input product lands in
// exactly one group or exactly one singles bucket. Duplicates additionally
// lists products that matched an existing group whose marketplace slot was
// already taken; those products are filed as singles and flagged here.
type GroupingResult struct {
	Groups     []ProductGroup                                   `json:"groups"`
	Singles    map[marketplace.Code][]*NormalizedProduct        `json:"singles"`
	Duplicates []ProductIdentity                                `json:"duplicates,omitempty"`
}

// SingleCount returns the total number of unmatched products
func (r *GroupingResult) SingleCount() int {
	n := 0
	for _, products := range r.Singles {
		n += len(products)
	}
	return n
}

// ConflictedGroups returns the groups carrying at least one conflict
func (r *GroupingResult) ConflictedGroups() []ProductGroup {
	var out []ProductGroup
	for _, g := range r.Groups {
		if g.HasConflicts() {
			out = append(out, g)
		}
	}
	return out
}

// matchEdge records one positive pairwise match made during grouping
type matchEdge struct {
	a, b   int
	result MatchResult
}

// Group partitions products from N marketplaces into equivalence groups and a
// residual set of singles. Pool order is deterministic: marketplaces sorted by
// code, each marketplace's products in fetch order. The claimed set is local
// to this call; the function is referentially transparent.
//
// Two policies, selected by opts.TransitiveGrouping:
//   - true: union-find over positive pairwise matches, yielding a true
//     equivalence-class partition (A~B and B~C put A, B, C together even when
//     A and C do not match directly);
//   - false: single-pass seed scan, where a group contains the seed and its
//     direct matches only.
func Group(bySource map[marketplace.Code][]*NormalizedProduct, opts MatchingOptions) (*GroupingResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	codes := make([]marketplace.Code, 0, len(bySource))
	for code := range bySource {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	var pool []*NormalizedProduct
	for _, code := range codes {
		for _, p := range bySource[code] {
			if err := p.Validate(); err != nil {
				return nil, err
			}
			pool = append(pool, p)
		}
	}

	result := &GroupingResult{
		Singles: make(map[marketplace.Code][]*NormalizedProduct),
	}
	if len(pool) == 0 {
		return result, nil
	}

	if opts.TransitiveGrouping {
		groupTransitive(pool, opts, result)
	} else {
		groupSeedScan(pool, opts, result)
	}
	return result, nil
}

// groupSeedScan reproduces the historical single-pass behavior: each unclaimed
// product seeds a group and claims its direct matches from other marketplaces.
func groupSeedScan(pool []*NormalizedProduct, opts MatchingOptions, result *GroupingResult) {
	claimed := make([]bool, len(pool))

	for i, seed := range pool {
		if claimed[i] {
			continue
		}

		members := []int{i}
		taken := map[marketplace.Code]bool{seed.Marketplace: true}
		var edges []matchEdge

		for j := i + 1; j < len(pool); j++ {
			if claimed[j] || pool[j].Marketplace == seed.Marketplace {
				continue
			}
			m := Match(seed, pool[j], opts)
			if !m.IsMatch() {
				continue
			}
			if taken[pool[j].Marketplace] {
				// The slot for this marketplace is filled; the product stays
				// unclaimed and will seed its own group or end up a single.
				result.Duplicates = append(result.Duplicates, pool[j].Identity())
				continue
			}
			members = append(members, j)
			taken[pool[j].Marketplace] = true
			claimed[j] = true
			edges = append(edges, matchEdge{a: i, b: j, result: m})
		}
		claimed[i] = true

		emit(pool, members, edges, opts, result)
	}
}

// groupTransitive partitions by union-find: every positive cross-marketplace
// match unions its endpoints, and groups are the resulting equivalence classes.
func groupTransitive(pool []*NormalizedProduct, opts MatchingOptions, result *GroupingResult) {
	uf := newUnionFind(len(pool))

	var edges []matchEdge
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			if pool[i].Marketplace == pool[j].Marketplace {
				continue
			}
			m := Match(pool[i], pool[j], opts)
			if m.IsMatch() {
				uf.union(i, j)
				edges = append(edges, matchEdge{a: i, b: j, result: m})
			}
		}
	}

	classes := make(map[int][]int)
	for i := range pool {
		root := uf.find(i)
		classes[root] = append(classes[root], i)
	}
	classEdges := make(map[int][]matchEdge)
	for _, e := range edges {
		root := uf.find(e.a)
		classEdges[root] = append(classEdges[root], e)
	}

	roots := make([]int, 0, len(classes))
	for root := range classes {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	for _, root := range roots {
		members := classes[root] // ascending pool order

		// Enforce at most one member per marketplace: the first in pool order
		// keeps the slot, the rest are duplicates and fall back to singles.
		taken := make(map[marketplace.Code]bool, len(members))
		kept := members[:0:0]
		for _, idx := range members {
			mk := pool[idx].Marketplace
			if taken[mk] {
				result.Duplicates = append(result.Duplicates, pool[idx].Identity())
				result.Singles[mk] = append(result.Singles[mk], pool[idx])
				continue
			}
			taken[mk] = true
			kept = append(kept, idx)
		}

		// Edges touching an evicted duplicate must not shape the group's
		// confidence or criteria.
		keptSet := make(map[int]bool, len(kept))
		for _, idx := range kept {
			keptSet[idx] = true
		}
		var keptEdges []matchEdge
		for _, e := range classEdges[root] {
			if keptSet[e.a] && keptSet[e.b] {
				keptEdges = append(keptEdges, e)
			}
		}

		emit(pool, kept, keptEdges, opts, result)
	}
}

// emit turns a finished member set into a ProductGroup or a single
func emit(pool []*NormalizedProduct, members []int, edges []matchEdge, opts MatchingOptions, result *GroupingResult) {
	if len(members) < 2 {
		p := pool[members[0]]
		result.Singles[p.Marketplace] = append(result.Singles[p.Marketplace], p)
		return
	}

	group := ProductGroup{
		Products:   make([]*NormalizedProduct, 0, len(members)),
		Confidence: 1,
	}
	for _, idx := range members {
		group.Products = append(group.Products, pool[idx])
	}

	seen := make(map[MatchCriterion]bool)
	for _, e := range edges {
		if e.result.Confidence < group.Confidence {
			group.Confidence = e.result.Confidence
		}
		if !seen[e.result.Criterion] {
			seen[e.result.Criterion] = true
			group.MatchCriteria = append(group.MatchCriteria, e.result.Criterion)
		}
	}

	// Conflicts are detected only on member pairs the matcher judged to match.
	for i := 0; i < len(group.Products); i++ {
		for j := i + 1; j < len(group.Products); j++ {
			if !Match(group.Products[i], group.Products[j], opts).IsMatch() {
				continue
			}
			report := DetectConflicts(group.Products[i], group.Products[j])
			group.Conflicts = append(group.Conflicts, report.Conflicts...)
		}
	}

	result.Groups = append(result.Groups, group)
}

// unionFind is a standard disjoint-set over pool indices with union by rank
// and path compression.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
