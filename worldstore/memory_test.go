package worldstore_test

import (
	"unsafe"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/worldstore"
)

type health struct{ HP int }

type marker struct{}

type childOf struct{ Parent ecs.Entity }

func (childOf) ComponentStorage() ecs.StorageClass { return ecs.Sparse }
func (childOf) ComponentRelationship() *ecs.RelationshipAccessor {
	return ecs.NewSingleRelationship(unsafe.Offsetof(childOf{}.Parent), true)
}

func TestWorldSpawnAssignsSequentialIndices(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[marker](reg)
	world := worldstore.NewWorld(reg)

	a := world.Spawn(&marker{})
	b := world.Spawn(&marker{})

	assert.NotEqual(t, a, b)
	assert.Equal(t, uint32(0), a.Index)
	assert.Equal(t, uint32(1), b.Index)
}

func TestWorldSpawnRoutesByStorageClass(t *testing.T) {
	reg := ecs.NewRegistry()
	healthId := ecs.Register[health](reg)
	childOfId := ecs.Register[childOf](reg)
	world := worldstore.NewWorld(reg)

	e := world.Spawn(&health{HP: 10}, &childOf{Parent: ecs.NewEntity(0, 0)})

	loc, ok := world.Entities().Get(e)
	require.True(t, ok)
	arch, ok := world.Archetypes().Get(loc.Archetype)
	require.True(t, ok)

	class, ok := arch.StorageType(healthId)
	require.True(t, ok)
	assert.Equal(t, ecs.Dense, class)

	class, ok = arch.StorageType(childOfId)
	require.True(t, ok)
	assert.Equal(t, ecs.Sparse, class)
}

func TestWorldSpawnReusesArchetypeForSameComponentSet(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	world := worldstore.NewWorld(reg)

	a := world.Spawn(&health{HP: 1})
	b := world.Spawn(&health{HP: 2})

	locA, _ := world.Entities().Get(a)
	locB, _ := world.Entities().Get(b)
	assert.Equal(t, locA.Archetype, locB.Archetype)
}

func TestWorldDespawnRemovesEntity(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	world := worldstore.NewWorld(reg)

	e := world.Spawn(&health{HP: 1})
	require.True(t, world.Despawn(e))

	_, ok := world.Entities().Get(e)
	assert.False(t, ok)
}

func TestWorldDespawnOnAlreadyGoneReturnsFalse(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	world := worldstore.NewWorld(reg)

	e := world.Spawn(&health{HP: 1})
	world.Despawn(e)
	assert.False(t, world.Despawn(e))
}

// LinkedSpawn cascades through a dense-stored relationship component.
func TestWorldDespawnCascadesThroughDenseRelationship(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	ecs.Register[denseChildOf](reg)
	world := worldstore.NewWorld(reg)

	parent := world.Spawn(&health{HP: 100})
	child := world.Spawn(&denseChildOf{Parent: parent})

	require.True(t, world.Despawn(parent))

	_, ok := world.Entities().Get(child)
	assert.False(t, ok, "child with a LinkedSpawn relationship must cascade-despawn")
}

// LinkedSpawn cascades through a sparse-stored relationship component; this
// is the common case in practice since relationship components are
// typically declared Sparse.
func TestWorldDespawnCascadesThroughSparseRelationship(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	ecs.Register[childOf](reg)
	world := worldstore.NewWorld(reg)

	parent := world.Spawn(&health{HP: 100})
	child := world.Spawn(&childOf{Parent: parent})

	require.True(t, world.Despawn(parent))

	_, ok := world.Entities().Get(child)
	assert.False(t, ok, "child with a sparse LinkedSpawn relationship must cascade-despawn")
}

func TestWorldDespawnDoesNotCascadeWithoutLinkedSpawn(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	ecs.Register[notLinked](reg)
	world := worldstore.NewWorld(reg)

	parent := world.Spawn(&health{HP: 100})
	child := world.Spawn(&notLinked{Parent: parent})

	require.True(t, world.Despawn(parent))

	_, ok := world.Entities().Get(child)
	assert.True(t, ok, "a relationship without LinkedSpawn must not cascade")
}

func TestWorldTickAdvancesChangeTicks(t *testing.T) {
	reg := ecs.NewRegistry()
	world := worldstore.NewWorld(reg)

	assert.Equal(t, uint64(0), world.ChangeTick())
	world.Tick()
	assert.Equal(t, uint64(0), world.LastChangeTick())
	assert.Equal(t, uint64(1), world.ChangeTick())
}

func TestWorldForEachVisitsEveryLiveEntity(t *testing.T) {
	reg := ecs.NewRegistry()
	ecs.Register[health](reg)
	world := worldstore.NewWorld(reg)

	a := world.Spawn(&health{HP: 1})
	b := world.Spawn(&health{HP: 2})
	world.Spawn(&health{HP: 3})
	world.Despawn(b)

	var seen []ecs.Entity
	world.ForEach(func(e ecs.Entity) { seen = append(seen, e) })

	assert.Len(t, seen, 2)
	assert.Contains(t, seen, a)
	assert.NotContains(t, seen, b)
}

func TestWorldSpawnRegistersUnknownComponent(t *testing.T) {
	reg := ecs.NewRegistry()
	world := worldstore.NewWorld(reg)

	e := world.Spawn(&unregistered{})

	id, ok := ecs.IdOf[unregistered](reg)
	require.True(t, ok, "spawn must register a component kind on first sight")

	loc, ok := world.Entities().Get(e)
	require.True(t, ok)
	arch, ok := world.Archetypes().Get(loc.Archetype)
	require.True(t, ok)
	assert.True(t, arch.Contains(id))
}

func TestWorldSpawnPanicsOnNonPointerComponent(t *testing.T) {
	reg := ecs.NewRegistry()
	world := worldstore.NewWorld(reg)

	assert.Panics(t, func() { world.Spawn(unregistered{}) })
}

type unregistered struct{}

type denseChildOf struct{ Parent ecs.Entity }

func (denseChildOf) ComponentRelationship() *ecs.RelationshipAccessor {
	return ecs.NewSingleRelationship(unsafe.Offsetof(denseChildOf{}.Parent), true)
}

type notLinked struct{ Parent ecs.Entity }

func (notLinked) ComponentStorage() ecs.StorageClass { return ecs.Sparse }
func (notLinked) ComponentRelationship() *ecs.RelationshipAccessor {
	return ecs.NewSingleRelationship(unsafe.Offsetof(notLinked{}.Parent), false)
}

