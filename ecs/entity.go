// Package ecs provides the component registry, filtered access algebra,
// relationship accessor, and declaration surface that the query core
// (package ecsquery) and matcher (package ecsmatch) build on.
package ecs

import "fmt"

// Entity is an opaque handle into the world: a 32-bit index plus a 32-bit
// generation. An index may be reused after despawn, but only with a
// strictly greater generation, so a stale handle never aliases a live one.
type Entity struct {
	Index      uint32
	Generation uint32
}

// NewEntity builds an entity handle from its raw parts.
func NewEntity(index, generation uint32) Entity {
	return Entity{Index: index, Generation: generation}
}

// String returns a human-readable "index:generation" form.
func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.Index, e.Generation)
}

// Compare orders entities by index, then generation.
func (e Entity) Compare(other Entity) int {
	if e.Index != other.Index {
		if e.Index < other.Index {
			return -1
		}
		return 1
	}
	if e.Generation != other.Generation {
		if e.Generation < other.Generation {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports whether both entities name the same (index, generation) pair.
func (e Entity) Equal(other Entity) bool {
	return e.Index == other.Index && e.Generation == other.Generation
}
