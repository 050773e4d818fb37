package ecsmatch

import (
	"github.com/wbrown/ecsquery/ecs"
)

// View is a filtered entity view: for one matched entity in a result
// tuple, it restricts component reads (and writes, where the originating
// term's access permitted write) to what that term declared.
type View struct {
	world  World
	entity ecs.Entity
	loc    EntityLocation
	access *ecs.FilteredAccess
}

// NewView resolves entity's current location and returns a View restricted
// to access. ok is false if entity is no longer live (e.g. it was
// despawned since the matcher ran).
func NewView(world World, access *ecs.FilteredAccess, entity ecs.Entity) (*View, bool) {
	loc, ok := world.Entities().Get(entity)
	if !ok {
		return nil, false
	}
	return &View{world: world, entity: entity, loc: loc, access: access}, true
}

// Entity returns the entity this view is restricted to.
func (v *View) Entity() ecs.Entity { return v.entity }

// Get returns a read-only pointer to entity's component id, cast to *T. ok
// is false if the view's access didn't declare a read of id, or the
// component is absent.
func Get[T any](v *View, id ecs.ComponentId) (*T, bool) {
	if !v.access.HasComponentRead(id) {
		return nil, false
	}
	base, ok := componentBase(v.world, v.entity, v.loc, id)
	if !ok {
		return nil, false
	}
	return (*T)(base), true
}

// GetMut returns a writable pointer to entity's component id, cast to *T.
// ok is false unless the view's access declared a write of id.
func GetMut[T any](v *View, id ecs.ComponentId) (*T, bool) {
	if !v.access.HasComponentWrite(id) {
		return nil, false
	}
	base, ok := componentBase(v.world, v.entity, v.loc, id)
	if !ok {
		return nil, false
	}
	return (*T)(base), true
}
