package ecsquery

import (
	"fmt"

	"github.com/wbrown/ecsquery/ecs"
)

// TypedBuilder is the type-driven convenience layer over Builder: it
// resolves component ids and relationship accessors from a Registry at
// build time instead of requiring the caller to pass them explicitly.
type TypedBuilder struct {
	registry *ecs.Registry
	inner    *Builder
}

// NewTypedBuilder returns an empty typed builder resolving kinds against reg.
func NewTypedBuilder(reg *ecs.Registry) *TypedBuilder {
	return &TypedBuilder{registry: reg, inner: NewBuilder()}
}

// Builder exposes the underlying low-level builder, for callers that need
// to mix typed and dynamic term/edge construction in one plan.
func (tb *TypedBuilder) Builder() *Builder { return tb.inner }

// Build freezes the plan rooted at mainIndex.
func (tb *TypedBuilder) Build(mainIndex TermIndex) (*Plan, error) {
	return tb.inner.Build(mainIndex)
}

// Term appends a new term with an empty required-set, matching any
// archetype.
func (tb *TypedBuilder) Term() TermIndex {
	return tb.inner.AddTerm(ecs.MatchesEverything())
}

// With registers T and appends a new term requiring read of T.
func With[T any](tb *TypedBuilder) TermIndex {
	access := ecs.NewFilteredAccess()
	id := ecs.Register[T](tb.registry)
	access.AddComponentRead(id)
	return tb.inner.AddTerm(access)
}

// WithMut registers T and appends a new term requiring write of T.
func WithMut[T any](tb *TypedBuilder) TermIndex {
	access := ecs.NewFilteredAccess()
	id := ecs.Register[T](tb.registry)
	access.AddComponentWrite(id)
	return tb.inner.AddTerm(access)
}

// AddRead augments an existing term to also require read of T.
func AddRead[T any](tb *TypedBuilder, index TermIndex) {
	id := ecs.Register[T](tb.registry)
	tb.inner.Term(index).Access.AddComponentRead(id)
}

// AddWrite augments an existing term to also require write of T.
func AddWrite[T any](tb *TypedBuilder, index TermIndex) {
	id := ecs.Register[T](tb.registry)
	tb.inner.Term(index).Access.AddComponentWrite(id)
}

// Without augments an existing term to forbid T, adding no read.
func Without[T any](tb *TypedBuilder, index TermIndex) {
	id := ecs.Register[T](tb.registry)
	tb.inner.Term(index).Access.AndWithout(id)
}

// FilterWith augments an existing term to require T present without
// adding a read of it.
func FilterWith[T any](tb *TypedBuilder, index TermIndex) {
	id := ecs.Register[T](tb.registry)
	tb.inner.Term(index).Access.AndWith(id)
}

// RelatedTo adds an edge from source to target using R's registered
// relationship accessor. Returns ErrNotARelationship if R has no accessor.
// The accessor is always the one captured by the registry at R's
// registration, never a fabricated one.
func RelatedTo[R any](tb *TypedBuilder, source, target TermIndex) error {
	id := ecs.Register[R](tb.registry)
	info, ok := tb.registry.Info(id)
	if !ok || info.Accessor == nil {
		return &ErrNotARelationship{ComponentName: fmt.Sprintf("%T", *new(R))}
	}
	return tb.inner.AddRelationship(source, target, id, info.Accessor)
}

// Or runs fn against a fresh sub-builder scoped to index's current term,
// then OR-combines the resulting access into that term. The sub-builder
// starts empty (matches-everything); fn typically calls OrWith/OrWithout
// against it via the *Or handle before Or returns.
func (tb *TypedBuilder) Or(index TermIndex, fn func(*Or)) {
	sub := &Or{access: ecs.NewFilteredAccess(), registry: tb.registry}
	fn(sub)
	tb.inner.Term(index).Access.AppendOr(sub.access)
}

// Or is the scoped sub-builder passed to TypedBuilder.Or's callback. Each
// call to OrWith/OrWithout on it augments the branch that will be OR-combined
// into the parent term.
type Or struct {
	access   *ecs.FilteredAccess
	registry *ecs.Registry
}

// OrWith registers T and requires it present in this OR-branch.
func OrWith[T any](o *Or) {
	id := ecs.Register[T](o.registry)
	o.access.AndWith(id)
}

// OrWithout registers T and requires it absent in this OR-branch.
func OrWithout[T any](o *Or) {
	id := ecs.Register[T](o.registry)
	o.access.AndWithout(id)
}
