package ecs

import "fmt"

// ComponentId is a dense, non-negative id assigned on first registration of
// a component kind. It is stable for the lifetime of the registry.
type ComponentId uint32

// StorageClass says how a component's rows are laid out in the world
// substrate: a dense per-archetype table, or a sparse set keyed by entity.
type StorageClass uint8

const (
	// Dense is the default: one row per entity in its archetype's table.
	Dense StorageClass = iota
	// Sparse stores the component in a map keyed by entity, outside any
	// archetype table.
	Sparse
)

// String renders the storage class the way it is written in a
// declaration: "Dense" or "Sparse".
func (s StorageClass) String() string {
	switch s {
	case Dense:
		return "Dense"
	case Sparse:
		return "Sparse"
	default:
		return fmt.Sprintf("StorageClass(%d)", uint8(s))
	}
}

// ComponentInfo is the registry's entry for one component id: its storage
// class, an optional relationship accessor, and whether reads of it
// participate in change detection.
type ComponentInfo struct {
	Storage                StorageClass
	Accessor               *RelationshipAccessor // nil if the kind is not a relationship
	ChangeDetectionEnabled bool
}

// IsRelationship reports whether this component kind carries a relationship
// accessor. The accessor variant is fixed at registration and never
// changes.
func (ci ComponentInfo) IsRelationship() bool {
	return ci.Accessor != nil
}
