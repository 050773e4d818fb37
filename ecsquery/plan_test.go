package ecsquery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/ecsquery"
)

type denseThing struct{ V int }

type sparseThing struct{ V int }

func (sparseThing) ComponentStorage() ecs.StorageClass { return ecs.Sparse }

func TestCombinedAccessCoversEveryTerm(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)

	a := ecsquery.With[denseThing](tb)
	b := ecsquery.WithMut[sparseThing](tb)

	plan, err := tb.Build(a)
	require.NoError(t, err)

	denseId := ecs.Register[denseThing](reg)
	sparseId := ecs.Register[sparseThing](reg)

	combined := plan.CombinedAccess()
	assert.True(t, combined.HasComponentRead(denseId))
	assert.True(t, combined.HasComponentWrite(sparseId))
	_ = b
}

func TestPlanIsDenseRejectsSparseRequirement(t *testing.T) {
	reg := ecs.NewRegistry()

	// Plan reads Dense, requires Sparse -> not dense.
	tb := ecsquery.NewTypedBuilder(reg)
	term := ecsquery.With[denseThing](tb)
	ecsquery.FilterWith[sparseThing](tb, term)

	plan, err := tb.Build(term)
	require.NoError(t, err)

	assert.False(t, plan.IsDense(reg))
}

func TestPlanIsDenseAllDense(t *testing.T) {
	reg := ecs.NewRegistry()
	tb := ecsquery.NewTypedBuilder(reg)
	term := ecsquery.With[denseThing](tb)

	plan, err := tb.Build(term)
	require.NoError(t, err)

	assert.True(t, plan.IsDense(reg))
}

func TestPlanIsDenseUnboundedIsConservativelyNotDense(t *testing.T) {
	reg := ecs.NewRegistry()
	b := ecsquery.NewBuilder()
	access := ecs.NewFilteredAccess()
	access.SetReadAll()
	main := b.AddTerm(access)

	plan, err := b.Build(main)
	require.NoError(t, err)
	assert.False(t, plan.IsDense(reg))
}
