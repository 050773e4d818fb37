package ecsquery

import (
	"fmt"

	"github.com/wbrown/ecsquery/ecs"
)

// Edge is a directed relationship link from one term to another via a
// relationship component. Accessor is a cached copy of the registry entry
// for RelationshipComponentId, captured once at build time so the matcher
// never re-resolves it per candidate.
type Edge struct {
	Source                  TermIndex
	Target                  TermIndex
	RelationshipComponentId ecs.ComponentId
	Accessor                *ecs.RelationshipAccessor
}

func (e Edge) String() string {
	return fmt.Sprintf("%d --[%d]--> %d", e.Source, e.RelationshipComponentId, e.Target)
}
