package ecsquery_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/ecsquery"
)

type position struct{ X, Y float64 }

type faction struct{ Name string }

type notARelationship struct{ V int }

type dockedTo struct{ Target ecs.Entity }

func (dockedTo) ComponentRelationship() *ecs.RelationshipAccessor {
	return ecs.NewSingleRelationship(unsafe.Offsetof(dockedTo{}.Target), false)
}

func TestTypedBuilderWithAndWithMut(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)

	read := ecsquery.With[position](tb)
	write := ecsquery.WithMut[faction](tb)

	plan, err := tb.Build(read)
	require.NoError(t, err)

	posId := ecs.Register[position](reg)
	facId := ecs.Register[faction](reg)

	assert.True(t, plan.Terms()[read].Access.HasComponentRead(posId))
	assert.True(t, plan.Terms()[write].Access.HasComponentWrite(facId))
}

func TestTypedBuilderWithoutAndFilterWith(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)

	term := ecsquery.With[position](tb)
	ecsquery.Without[faction](tb, term)
	ecsquery.FilterWith[notARelationship](tb, term)

	plan, err := tb.Build(term)
	require.NoError(t, err)

	facId := ecs.Register[faction](reg)
	markerId := ecs.Register[notARelationship](reg)

	access := plan.Terms()[term].Access
	assert.False(t, access.Matches(func(id ecs.ComponentId) bool { return id == facId }))
	assert.True(t, access.Matches(func(id ecs.ComponentId) bool { return id != facId }))
	_ = markerId
}

func TestTypedBuilderRelatedTo(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)

	ship := ecsquery.With[position](tb)
	target := tb.Term()
	require.NoError(t, ecsquery.RelatedTo[dockedTo](tb, ship, target))

	plan, err := tb.Build(ship)
	require.NoError(t, err)
	require.Len(t, plan.Edges(), 1)

	edge := plan.Edges()[0]
	expectedId := ecs.Register[dockedTo](reg)
	assert.Equal(t, expectedId, edge.RelationshipComponentId)
	assert.Equal(t, unsafe.Offsetof(dockedTo{}.Target), edge.Accessor.Offset)
}

func TestTypedBuilderRelatedToRejectsNonRelationship(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)

	a := tb.Term()
	b := tb.Term()

	err := ecsquery.RelatedTo[notARelationship](tb, a, b)
	require.Error(t, err)

	var notRel *ecsquery.ErrNotARelationship
	require.ErrorAs(t, err, &notRel)
}

func TestTypedBuilderOrCombinator(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)

	term := tb.Term()
	tb.Or(term, func(o *ecsquery.Or) {
		ecsquery.OrWith[position](o)
	})
	tb.Or(term, func(o *ecsquery.Or) {
		ecsquery.OrWith[faction](o)
	})

	plan, err := tb.Build(term)
	require.NoError(t, err)

	posId := ecs.Register[position](reg)
	facId := ecs.Register[faction](reg)

	access := plan.Terms()[term].Access
	assert.True(t, access.Matches(func(id ecs.ComponentId) bool { return id == posId }))
	assert.True(t, access.Matches(func(id ecs.ComponentId) bool { return id == facId }))
	assert.False(t, access.Matches(func(ecs.ComponentId) bool { return false }))
}
