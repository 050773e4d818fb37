package ecsquery

import "github.com/wbrown/ecsquery/ecs"

// Plan is the frozen description of terms, edges, and the main term
// index. Plans are pure data: cloneable, storable, and callable under
// shared access once frozen.
type Plan struct {
	terms         []Term
	edges         []Edge
	mainTermIndex TermIndex
}

// Terms returns the plan's term vector, in build order.
func (p *Plan) Terms() []Term { return p.terms }

// Edges returns the plan's edge vector, in insertion order. The matcher's
// deterministic DFS order depends on this order being stable.
func (p *Plan) Edges() []Edge { return p.edges }

// MainTermIndex returns the index of the term whose entity is supplied by
// the caller of Execute.
func (p *Plan) MainTermIndex() TermIndex { return p.mainTermIndex }

// EdgesFrom returns, in insertion order, every edge whose source is term.
func (p *Plan) EdgesFrom(term TermIndex) []Edge {
	var out []Edge
	for _, e := range p.edges {
		if e.Source == term {
			out = append(out, e)
		}
	}
	return out
}

// IsLeaf reports whether term has no outgoing edges.
func (p *Plan) IsLeaf(term TermIndex) bool {
	for _, e := range p.edges {
		if e.Source == term {
			return false
		}
	}
	return true
}

// CombinedAccess folds every term's access into one conservative access
// set. A scheduler treating it as the system's access set over-approximates
// but never under-approximates actual reads and writes.
func (p *Plan) CombinedAccess() *ecs.FilteredAccess {
	combined := ecs.MatchesEverything()
	for _, t := range p.terms {
		combined.Extend(t.Access)
	}
	return combined
}

// IsDense reports whether every component required by every term resolves,
// in registry, to Dense storage. A plan that requires even one Sparse
// component is not dense; callers may use this to choose a table-iteration
// fast path over archetype iteration.
func (p *Plan) IsDense(reg *ecs.Registry) bool {
	for _, t := range p.terms {
		ids, err := t.Access.TryIterComponentAccess()
		if err != nil {
			// Unbounded (read_all): cannot prove density, so conservatively
			// not dense.
			return false
		}
		for _, id := range ids {
			info, ok := reg.Info(id)
			if !ok || info.Storage != ecs.Dense {
				return false
			}
		}
	}
	return true
}
