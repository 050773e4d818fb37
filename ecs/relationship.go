package ecs

import "unsafe"

// EntityIterator is a lazy sequence of candidate entities produced by a
// RelationshipTarget accessor. Next returns false once exhausted; it never
// copies the underlying collection up front.
type EntityIterator interface {
	Next() (Entity, bool)
}

// sliceEntityIterator adapts a materialized slice to EntityIterator, for
// accessors whose backing collection is already a plain slice.
type sliceEntityIterator struct {
	entities []Entity
	pos      int
}

func (it *sliceEntityIterator) Next() (Entity, bool) {
	if it.pos >= len(it.entities) {
		return Entity{}, false
	}
	e := it.entities[it.pos]
	it.pos++
	return e, true
}

// NewSliceEntityIterator wraps a slice of entities as an EntityIterator.
func NewSliceEntityIterator(entities []Entity) EntityIterator {
	return &sliceEntityIterator{entities: entities}
}

// RelationshipAccessor is a type-erased, two-variant view over a
// relationship-bearing component: a tagged union implemented as an
// embedded function pointer rather than an interface, since the interface
// would carry exactly one method.
//
// Exactly one of Offset (a Relationship) or Iterate (a RelationshipTarget)
// is valid on a given accessor, selected by Kind.
type RelationshipAccessor struct {
	Kind RelationshipKind

	// Offset is the byte offset of the Entity field within the component's
	// base pointer, valid when Kind == RelationshipKindSingle. Captured once
	// at registration, never recomputed per read.
	Offset uintptr

	// Iterate, valid when Kind == RelationshipKindTarget, returns the
	// sequence of source entities pointing at the component's owner,
	// without copying the backing collection.
	Iterate func(base unsafe.Pointer) EntityIterator

	// LinkedSpawn: when true, despawning the entity on one side of the
	// relationship cascades to the other (see worldstore.World.Despawn).
	LinkedSpawn bool
}

// RelationshipKind distinguishes the two RelationshipAccessor variants.
type RelationshipKind uint8

const (
	// RelationshipKindSingle is the `Relationship{entity_field_offset}`
	// variant: the component holds a single Entity at a fixed offset.
	RelationshipKindSingle RelationshipKind = iota
	// RelationshipKindTarget is the `RelationshipTarget{iterate}` variant:
	// the component holds a collection of source entities.
	RelationshipKindTarget
)

// NewSingleRelationship builds a Relationship accessor for a component that
// stores one target Entity at the given byte offset.
func NewSingleRelationship(offset uintptr, linkedSpawn bool) *RelationshipAccessor {
	return &RelationshipAccessor{
		Kind:        RelationshipKindSingle,
		Offset:      offset,
		LinkedSpawn: linkedSpawn,
	}
}

// NewTargetRelationship builds a RelationshipTarget accessor whose iterate
// function lazily yields the entities pointing at the owning component.
func NewTargetRelationship(iterate func(unsafe.Pointer) EntityIterator, linkedSpawn bool) *RelationshipAccessor {
	return &RelationshipAccessor{
		Kind:        RelationshipKindTarget,
		Iterate:     iterate,
		LinkedSpawn: linkedSpawn,
	}
}

// ReadSingle dereferences the Entity at Offset from base. Callers must only
// call this when Kind == RelationshipKindSingle; base must point at the
// live component instance. The offset is a declaration-time invariant of
// the component kind; the world substrate owns the safety argument for
// the dereference.
func (r *RelationshipAccessor) ReadSingle(base unsafe.Pointer) Entity {
	return *(*Entity)(unsafe.Pointer(uintptr(base) + r.Offset))
}
