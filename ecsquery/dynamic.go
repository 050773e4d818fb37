package ecsquery

import "github.com/wbrown/ecsquery/ecs"

// NewDynamicTerm builds a term's access set from component ids discovered
// at runtime rather than from a compile-time type parameter.
// reads/writes/without name ids already known to the registry, e.g.
// resolved by looking up a component kind's name.
func NewDynamicTerm(reads, writes, without []ecs.ComponentId) *ecs.FilteredAccess {
	access := ecs.NewFilteredAccess()
	for _, id := range reads {
		access.AddComponentRead(id)
	}
	for _, id := range writes {
		access.AddComponentWrite(id)
	}
	for _, id := range without {
		access.AndWithout(id)
	}
	return access
}

// AddDynamicTerm appends a dynamic term to the low-level builder and
// returns its index, the untyped counterpart to ecsquery.With[T].
func AddDynamicTerm(b *Builder, reads, writes, without []ecs.ComponentId) TermIndex {
	return b.AddTerm(NewDynamicTerm(reads, writes, without))
}

// AddDynamicRelationship adds an edge using an accessor resolved at
// runtime (e.g. via Registry.Info(id) for an id looked up by name), the
// untyped counterpart to ecsquery.RelatedTo[R].
func AddDynamicRelationship(b *Builder, source, target TermIndex, componentId ecs.ComponentId, reg *ecs.Registry) error {
	info, ok := reg.Info(componentId)
	if !ok || info.Accessor == nil {
		return &ErrNotARelationship{ComponentName: "<dynamic>"}
	}
	return b.AddRelationship(source, target, componentId, info.Accessor)
}
