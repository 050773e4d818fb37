// Package ecsquery builds query plans: the vector of terms, the vector of
// relationship edges between them, and the index of the main term. Plans
// are pure, frozen data once built; package ecsmatch executes them.
package ecsquery

import (
	"fmt"

	"github.com/wbrown/ecsquery/ecs"
)

// TermIndex is the stable handle for a term: its position in the plan's
// term vector. Edges refer to terms by this index rather than by pointer.
type TermIndex uint32

// Term is one "source" in a plan: a filtered access set plus its own
// index.
type Term struct {
	Index  TermIndex
	Access *ecs.FilteredAccess
}

func (t Term) String() string {
	return fmt.Sprintf("term[%d]", t.Index)
}
