// Package ecsmatch implements the backtracking matcher/executor: given a
// frozen ecsquery.Plan and a main entity, it enumerates every tuple
// satisfying the plan's terms and edges. The world substrate itself
// (entity allocator, archetype/table store, sparse-set store) is external;
// this package only consumes the interfaces below.
package ecsmatch

import (
	"unsafe"

	"github.com/wbrown/ecsquery/ecs"
)

// ArchetypeId names one archetype in the world substrate.
type ArchetypeId uint32

// TableId names one dense storage table.
type TableId uint32

// TableRow is an entity's row within a table.
type TableRow uint32

// EntityLocation is what the entity allocator hands back for a live
// entity: which archetype it belongs to and its row in that archetype's
// table.
type EntityLocation struct {
	Archetype ArchetypeId
	Row       TableRow
}

// Entities resolves live entities to their location. Get misses on stale
// or never-allocated entities.
type Entities interface {
	Get(e ecs.Entity) (EntityLocation, bool)
}

// Archetype answers the membership and storage-class questions the matcher
// needs to test a term against a candidate entity.
type Archetype interface {
	Contains(id ecs.ComponentId) bool
	StorageType(id ecs.ComponentId) (ecs.StorageClass, bool)
	TableId() TableId
}

// Archetypes resolves an ArchetypeId to its Archetype.
type Archetypes interface {
	Get(id ArchetypeId) (Archetype, bool)
}

// Table is a dense per-archetype storage table, addressed by component id
// and row.
type Table interface {
	GetComponent(id ecs.ComponentId, row TableRow) (unsafe.Pointer, bool)
}

// Tables resolves a TableId to its Table.
type Tables interface {
	Get(id TableId) (Table, bool)
}

// SparseSet is a sparse, entity-keyed component store.
type SparseSet interface {
	Get(e ecs.Entity) (unsafe.Pointer, bool)
}

// SparseSets resolves a component id to its SparseSet.
type SparseSets interface {
	Get(id ecs.ComponentId) (SparseSet, bool)
}

// Storages groups the two storage backends the world substrate exposes.
type Storages interface {
	Tables() Tables
	SparseSets() SparseSets
}

// World is the full external interface the matcher consumes. A production
// world, and the worldstore package's reference implementation, both
// satisfy it.
type World interface {
	Entities() Entities
	Archetypes() Archetypes
	Storages() Storages
	Components() *ecs.Registry
	LastChangeTick() uint64
	ChangeTick() uint64
}

// componentBase returns the raw pointer to entity's instance of component
// id within archetype, reading via the archetype's declared storage class:
// Dense through the archetype's table row, Sparse through the component's
// sparse set. ok is false if the entity's archetype doesn't actually hold
// the component, or the storage lookup otherwise misses; the caller prunes
// rather than erroring.
func componentBase(w World, e ecs.Entity, loc EntityLocation, id ecs.ComponentId) (unsafe.Pointer, bool) {
	arch, ok := w.Archetypes().Get(loc.Archetype)
	if !ok {
		return nil, false
	}
	storage, ok := arch.StorageType(id)
	if !ok {
		return nil, false
	}
	switch storage {
	case ecs.Dense:
		table, ok := w.Storages().Tables().Get(arch.TableId())
		if !ok {
			return nil, false
		}
		return table.GetComponent(id, loc.Row)
	case ecs.Sparse:
		set, ok := w.Storages().SparseSets().Get(id)
		if !ok {
			return nil, false
		}
		return set.Get(e)
	default:
		return nil, false
	}
}
