package ecsmatch

import (
	"time"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/ecs/annotations"
	"github.com/wbrown/ecsquery/ecsquery"
)

// Tuple is one result row: one entity per term of the plan it was matched
// against, in term-index order.
type Tuple []ecs.Entity

// Matcher walks a frozen ecsquery.Plan against a World by backtracking
// DFS rooted at the plan's main term.
type Matcher struct {
	world   World
	handler annotations.Handler
}

// NewMatcher returns a matcher over world.
func NewMatcher(world World) *Matcher {
	return &Matcher{world: world}
}

// WithHandler returns a copy of the matcher that reports tracing events
// to handler.
func (m *Matcher) WithHandler(handler annotations.Handler) *Matcher {
	return &Matcher{world: m.world, handler: handler}
}

func (m *Matcher) emit(name string, start time.Time, data map[string]interface{}) {
	if m.handler == nil {
		return
	}
	end := time.Now()
	m.handler(annotations.Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}

// Execute returns every tuple (e_0, ..., e_n-1) such that e_main equals
// mainEntity and every term and edge of plan is satisfied. It never
// fails: pruning conditions (stale entity, missing component, no match)
// simply contribute no tuples. ctx carries the change-tick snapshot a
// caller should use for any change-detection-enabled component read
// performed on the result.
func (m *Matcher) Execute(plan *ecsquery.Plan, mainEntity ecs.Entity) (tuples []Tuple, ctx FetchContext) {
	start := time.Now()
	ctx = NewFetchContext(m.world)
	defer func() { m.emit(annotations.MatchComplete, start, map[string]interface{}{"tuples": len(tuples)}) }()
	m.emit(annotations.MatchInvoked, start, map[string]interface{}{"main": mainEntity.String()})

	terms := plan.Terms()
	main := plan.MainTermIndex()

	ok, _ := m.termMatches(terms[main].Access, mainEntity)
	if !ok {
		reason := annotations.PruneMismatch
		if _, live := m.world.Entities().Get(mainEntity); !live {
			reason = annotations.PruneStale
		}
		m.emit(reason, start, map[string]interface{}{"entity": mainEntity.String()})
		return nil, ctx
	}

	partial := make([]ecs.Entity, len(terms))
	bound := make([]bool, len(terms))
	partial[main] = mainEntity
	bound[main] = true

	// Walk plan.Edges() as one flat, insertion-ordered list rather than
	// branching per-term: a term reached by more than one edge (e.g. a ship
	// bound by both BelongsToFaction and DockedTo) must hold both bindings
	// live at once for the rest of the walk, not just for the lifetime of a
	// single sibling branch. A plan is only well-formed if, by the time an
	// edge is reached in this order, its source term is already reachable
	// from main (built by adding edges as each new term is connected); the
	// builders do not check this order. An edge whose source isn't bound
	// yet simply contributes nothing, and a tuple is only emitted once
	// every slot is bound.
	edges := plan.Edges()
	var results []Tuple
	var recurse func(edgeIndex int)
	recurse = func(edgeIndex int) {
		if edgeIndex == len(edges) {
			if allBound(bound) {
				results = append(results, snapshot(partial))
				m.emit(annotations.TupleEmitted, start, nil)
			}
			return
		}
		edge := edges[edgeIndex]
		if !bound[edge.Source] {
			recurse(edgeIndex + 1)
			return
		}
		source := partial[edge.Source]
		candidates := m.candidatesForEdge(edge, source)
		m.emit(annotations.EdgeCandidates, start, map[string]interface{}{"edge": edge.String(), "count": len(candidates)})
		for _, candidate := range candidates {
			matched, _ := m.termMatches(terms[edge.Target].Access, candidate)
			if !matched {
				m.emit(annotations.PruneMismatch, start, map[string]interface{}{"entity": candidate.String()})
				continue // stale entity or term mismatch: prune
			}
			if bound[edge.Target] {
				if !partial[edge.Target].Equal(candidate) {
					m.emit(annotations.PruneConflict, start, map[string]interface{}{"entity": candidate.String()})
					continue // cycle disagreement: prune this branch
				}
				recurse(edgeIndex + 1) // cycle agreement: already bound, keep walking
				continue
			}
			partial[edge.Target] = candidate
			bound[edge.Target] = true
			recurse(edgeIndex + 1)
			bound[edge.Target] = false
			partial[edge.Target] = ecs.Entity{}
		}
	}
	recurse(0)

	return results, ctx
}

func allBound(bound []bool) bool {
	for _, b := range bound {
		if !b {
			return false
		}
	}
	return true
}

func snapshot(partial []ecs.Entity) Tuple {
	out := make(Tuple, len(partial))
	copy(out, partial)
	return out
}

// termMatches resolves e's location and tests it against access: ok is
// false for a stale or absent entity, or an archetype that doesn't
// satisfy access.
func (m *Matcher) termMatches(access *ecs.FilteredAccess, e ecs.Entity) (bool, EntityLocation) {
	loc, ok := m.world.Entities().Get(e)
	if !ok {
		return false, EntityLocation{}
	}
	arch, ok := m.world.Archetypes().Get(loc.Archetype)
	if !ok {
		return false, EntityLocation{}
	}
	return access.Matches(arch.Contains), loc
}

// candidatesForEdge computes the candidate target entities for edge given
// its already-resolved source entity. An empty result means the source is
// missing the relationship component; a prune condition, not an error.
func (m *Matcher) candidatesForEdge(edge ecsquery.Edge, source ecs.Entity) []ecs.Entity {
	loc, ok := m.world.Entities().Get(source)
	if !ok {
		return nil
	}
	base, ok := componentBase(m.world, source, loc, edge.RelationshipComponentId)
	if !ok {
		m.emit(annotations.PruneMissing, time.Now(), map[string]interface{}{"entity": source.String(), "component": uint32(edge.RelationshipComponentId)})
		return nil
	}

	switch edge.Accessor.Kind {
	case ecs.RelationshipKindSingle:
		return []ecs.Entity{edge.Accessor.ReadSingle(base)}
	case ecs.RelationshipKindTarget:
		var out []ecs.Entity
		it := edge.Accessor.Iterate(base)
		for {
			e, more := it.Next()
			if !more {
				break
			}
			out = append(out, e)
		}
		return out
	default:
		return nil
	}
}
