// Package worldstore is a reference implementation of the world substrate
// ecsmatch.World requires: an entity allocator, archetype/table store, and
// sparse-set store, external to the query core proper but needed to
// exercise and test it. World is the in-memory variant; BadgerWorld
// (badger_world.go) persists through Badger.
package worldstore

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"unsafe"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/ecsmatch"
)

type row struct {
	components map[ecs.ComponentId]unsafe.Pointer
}

type table struct {
	rows []row
}

func (t *table) GetComponent(id ecs.ComponentId, r ecsmatch.TableRow) (unsafe.Pointer, bool) {
	if int(r) >= len(t.rows) {
		return nil, false
	}
	ptr, ok := t.rows[r].components[id]
	return ptr, ok
}

type archetype struct {
	id       ecsmatch.ArchetypeId
	tableId  ecsmatch.TableId
	dense    map[ecs.ComponentId]struct{} // component ids stored in the table
	sparse   map[ecs.ComponentId]struct{} // component ids stored in sparse sets, but present on this archetype
}

func (a *archetype) Contains(id ecs.ComponentId) bool {
	if _, ok := a.dense[id]; ok {
		return true
	}
	_, ok := a.sparse[id]
	return ok
}

func (a *archetype) StorageType(id ecs.ComponentId) (ecs.StorageClass, bool) {
	if _, ok := a.dense[id]; ok {
		return ecs.Dense, true
	}
	if _, ok := a.sparse[id]; ok {
		return ecs.Sparse, true
	}
	return 0, false
}

func (a *archetype) TableId() ecsmatch.TableId { return a.tableId }

type sparseSet struct {
	byEntity map[ecs.Entity]unsafe.Pointer
}

func (s *sparseSet) Get(e ecs.Entity) (unsafe.Pointer, bool) {
	ptr, ok := s.byEntity[e]
	return ptr, ok
}

type entityTable struct {
	locations map[ecs.Entity]ecsmatch.EntityLocation
}

func (e *entityTable) Get(entity ecs.Entity) (ecsmatch.EntityLocation, bool) {
	loc, ok := e.locations[entity]
	return loc, ok
}

type tables struct{ byId map[ecsmatch.TableId]*table }

func (t *tables) Get(id ecsmatch.TableId) (ecsmatch.Table, bool) {
	tb, ok := t.byId[id]
	return tb, ok
}

type sparseSets struct{ byComponent map[ecs.ComponentId]*sparseSet }

func (s *sparseSets) Get(id ecs.ComponentId) (ecsmatch.SparseSet, bool) {
	set, ok := s.byComponent[id]
	return set, ok
}

type storages struct {
	tables     *tables
	sparseSets *sparseSets
}

func (s *storages) Tables() ecsmatch.Tables         { return s.tables }
func (s *storages) SparseSets() ecsmatch.SparseSets { return s.sparseSets }

type archetypeTable struct{ byId map[ecsmatch.ArchetypeId]*archetype }

func (a *archetypeTable) Get(id ecsmatch.ArchetypeId) (ecsmatch.Archetype, bool) {
	arch, ok := a.byId[id]
	return arch, ok
}

// World is an in-memory reference implementation of ecsmatch.World, used as
// the primary test double for the matcher and as a small embeddable store
// for callers that don't need persistence.
type World struct {
	mu sync.RWMutex

	registry *ecs.Registry

	entities      *entityTable
	archetypes    *archetypeTable
	archetypeKeys map[string]ecsmatch.ArchetypeId
	storages      *storages

	nextIndex   uint32
	nextTableId ecsmatch.TableId
	nextArchId  ecsmatch.ArchetypeId

	lastChangeTick uint64
	changeTick     uint64
}

// NewWorld returns an empty in-memory world backed by reg.
func NewWorld(reg *ecs.Registry) *World {
	return &World{
		registry:      reg,
		entities:      &entityTable{locations: map[ecs.Entity]ecsmatch.EntityLocation{}},
		archetypes:    &archetypeTable{byId: map[ecsmatch.ArchetypeId]*archetype{}},
		archetypeKeys: map[string]ecsmatch.ArchetypeId{},
		storages: &storages{
			tables:     &tables{byId: map[ecsmatch.TableId]*table{}},
			sparseSets: &sparseSets{byComponent: map[ecs.ComponentId]*sparseSet{}},
		},
	}
}

// ForEach calls fn once for every currently live entity, in no particular
// order. Not part of ecsmatch.World: callers that need to enumerate rather
// than look up (e.g. a CLI driving queries from every entity) use the
// concrete type.
func (w *World) ForEach(fn func(ecs.Entity)) {
	w.mu.RLock()
	entities := make([]ecs.Entity, 0, len(w.entities.locations))
	for e := range w.entities.locations {
		entities = append(entities, e)
	}
	w.mu.RUnlock()
	for _, e := range entities {
		fn(e)
	}
}

func (w *World) Entities() ecsmatch.Entities     { return w.entities }
func (w *World) Archetypes() ecsmatch.Archetypes { return w.archetypes }
func (w *World) Storages() ecsmatch.Storages     { return w.storages }
func (w *World) Components() *ecs.Registry       { return w.registry }
func (w *World) LastChangeTick() uint64          { return w.lastChangeTick }
func (w *World) ChangeTick() uint64              { return w.changeTick }

// Tick advances the world's current change tick, snapshotting the
// previous value as the last change tick.
func (w *World) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastChangeTick = w.changeTick
	w.changeTick++
}

func archetypeKey(ids []ecs.ComponentId) string {
	sorted := append([]ecs.ComponentId(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	key := ""
	for _, id := range sorted {
		key += fmt.Sprintf("/%d", id)
	}
	return key
}

// Spawn creates a new live entity holding the given component instances
// (each a pointer to a component value, e.g. &Health{HP: 10}); component
// kinds not yet known to the registry are registered on first sight.
// Components are routed to dense table storage or a sparse set according
// to each component kind's registered StorageClass.
func (w *World) Spawn(components ...interface{}) ecs.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]ecs.ComponentId, 0, len(components))
	ptrs := make(map[ecs.ComponentId]unsafe.Pointer, len(components))
	for _, c := range components {
		id, ok := ecs.RegisterValue(w.registry, c)
		if !ok {
			panic(fmt.Sprintf("worldstore: component %T must be passed as a pointer", c))
		}
		ids = append(ids, id)
		ptrs[id] = componentPointer(c)
	}

	key := archetypeKey(ids)
	archId, ok := w.archetypeKeys[key]
	if !ok {
		archId = w.nextArchId
		w.nextArchId++
		arch := &archetype{id: archId, dense: map[ecs.ComponentId]struct{}{}, sparse: map[ecs.ComponentId]struct{}{}}
		for _, id := range ids {
			info := w.registry.MustInfo(id)
			if info.Storage == ecs.Sparse {
				arch.sparse[id] = struct{}{}
			} else {
				arch.dense[id] = struct{}{}
			}
		}
		if len(arch.dense) > 0 {
			arch.tableId = w.nextTableId
			w.nextTableId++
			w.storages.tables.byId[arch.tableId] = &table{}
		}
		w.archetypes.byId[archId] = arch
		w.archetypeKeys[key] = archId
	}

	arch := w.archetypes.byId[archId]
	entity := ecs.NewEntity(w.nextIndex, 0)
	w.nextIndex++

	loc := ecsmatch.EntityLocation{Archetype: archId}
	if len(arch.dense) > 0 {
		t := w.storages.tables.byId[arch.tableId]
		r := row{components: map[ecs.ComponentId]unsafe.Pointer{}}
		for id := range arch.dense {
			r.components[id] = ptrs[id]
		}
		loc.Row = ecsmatch.TableRow(len(t.rows))
		t.rows = append(t.rows, r)
	}
	for id := range arch.sparse {
		set, ok := w.storages.sparseSets.byComponent[id]
		if !ok {
			set = &sparseSet{byEntity: map[ecs.Entity]unsafe.Pointer{}}
			w.storages.sparseSets.byComponent[id] = set
		}
		set.byEntity[entity] = ptrs[id]
	}

	w.entities.locations[entity] = loc
	return entity
}

// Despawn removes entity from the world. If any relationship component
// whose accessor has LinkedSpawn == true points at entity, the source is
// despawned too. ok is false if entity was already gone.
func (w *World) Despawn(entity ecs.Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.despawnLocked(entity)
}

func (w *World) despawnLocked(entity ecs.Entity) bool {
	loc, ok := w.entities.locations[entity]
	if !ok {
		return false
	}
	arch := w.archetypes.byId[loc.Archetype]

	// Find sources whose LinkedSpawn relationship points at entity, before
	// removing entity's own storage.
	var cascades []ecs.Entity
	for other, otherLoc := range w.entities.locations {
		if other.Equal(entity) {
			continue
		}
		otherArch := w.archetypes.byId[otherLoc.Archetype]
		for id := range otherArch.dense {
			info, ok := w.registry.Info(id)
			if !ok || info.Accessor == nil || !info.Accessor.LinkedSpawn {
				continue
			}
			if info.Accessor.Kind != ecs.RelationshipKindSingle {
				continue
			}
			t := w.storages.tables.byId[otherArch.tableId]
			ptr, ok := t.GetComponent(id, otherLoc.Row)
			if !ok {
				continue
			}
			if info.Accessor.ReadSingle(ptr).Equal(entity) {
				cascades = append(cascades, other)
			}
		}
		for id := range otherArch.sparse {
			info, ok := w.registry.Info(id)
			if !ok || info.Accessor == nil || !info.Accessor.LinkedSpawn {
				continue
			}
			if info.Accessor.Kind != ecs.RelationshipKindSingle {
				continue
			}
			set, ok := w.storages.sparseSets.byComponent[id]
			if !ok {
				continue
			}
			ptr, ok := set.Get(other)
			if !ok {
				continue
			}
			if info.Accessor.ReadSingle(ptr).Equal(entity) {
				cascades = append(cascades, other)
			}
		}
	}

	delete(w.entities.locations, entity)
	for id := range arch.sparse {
		delete(w.storages.sparseSets.byComponent[id].byEntity, entity)
	}
	// Dense table rows are left in place (tombstoned by the removed entity
	// mapping); a production world would compact the table, which is
	// outside this reference implementation's scope.

	for _, c := range cascades {
		w.despawnLocked(c)
	}
	return true
}

// componentPointer returns the unsafe.Pointer backing a component instance
// passed as interface{}. Callers must pass a pointer to the component
// value (e.g. &Health{...}); Spawn panics on non-pointer components.
func componentPointer(c interface{}) unsafe.Pointer {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("worldstore: component %T must be passed as a pointer", c))
	}
	return v.UnsafePointer()
}
