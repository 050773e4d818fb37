package ecsquery

import "github.com/wbrown/ecsquery/ecs"

// Builder is the low-level plan builder: a growing vector of terms plus a
// vector of edges, appended to until Build freezes them.
type Builder struct {
	terms []Term
	edges []Edge
}

// NewBuilder returns an empty low-level builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddTerm appends a new term with the given access set and returns its
// index.
func (b *Builder) AddTerm(access *ecs.FilteredAccess) TermIndex {
	idx := TermIndex(len(b.terms))
	b.terms = append(b.terms, Term{Index: idx, Access: access})
	return idx
}

// Term returns a pointer to the term at index, for in-place mutation by
// higher-level builders (e.g. TypedBuilder.AddRead). Panics if index is out
// of range; the TypedBuilder helpers (AddRead, AddWrite, Without,
// FilterWith, Or) pass the caller's index through unchecked.
func (b *Builder) Term(index TermIndex) *Term {
	return &b.terms[index]
}

// NumTerms returns how many terms have been appended so far.
func (b *Builder) NumTerms() int {
	return len(b.terms)
}

// validIndex reports whether index names an existing term.
func (b *Builder) validIndex(index TermIndex) bool {
	return int(index) < len(b.terms)
}

// AddRelationship appends an edge from source to target via componentId,
// validating both indices exist. Returns ErrUnknownTerm if either is out
// of range.
func (b *Builder) AddRelationship(source, target TermIndex, componentId ecs.ComponentId, accessor *ecs.RelationshipAccessor) error {
	if !b.validIndex(source) {
		return &ErrUnknownTerm{Index: source, Len: len(b.terms)}
	}
	if !b.validIndex(target) {
		return &ErrUnknownTerm{Index: target, Len: len(b.terms)}
	}
	b.edges = append(b.edges, Edge{
		Source:                  source,
		Target:                  target,
		RelationshipComponentId: componentId,
		Accessor:                accessor,
	})
	return nil
}

// Build freezes the builder into a Plan rooted at mainIndex. Returns
// ErrUnknownTerm if mainIndex is out of range.
func (b *Builder) Build(mainIndex TermIndex) (*Plan, error) {
	if !b.validIndex(mainIndex) {
		return nil, &ErrUnknownTerm{Index: mainIndex, Len: len(b.terms)}
	}
	terms := make([]Term, len(b.terms))
	for i, t := range b.terms {
		terms[i] = t
		if t.Access != nil {
			terms[i].Access = t.Access.Clone()
		}
	}
	edges := make([]Edge, len(b.edges))
	copy(edges, b.edges)
	return &Plan{terms: terms, edges: edges, mainTermIndex: mainIndex}, nil
}
