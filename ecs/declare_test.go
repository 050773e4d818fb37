package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/ecsquery/ecs"
)

func TestDeclareComponentDefaults(t *testing.T) {
	decl, err := ecs.DeclareComponent()
	require.NoError(t, err)
	assert.Equal(t, ecs.Dense, decl.Storage)
	assert.True(t, decl.ChangeDetection)
}

func TestDeclareComponentSparse(t *testing.T) {
	decl, err := ecs.DeclareComponent(ecs.Storage("Sparse"), ecs.ChangeDetection(false))
	require.NoError(t, err)
	assert.Equal(t, ecs.Sparse, decl.Storage)
	assert.False(t, decl.ChangeDetection)
}

func TestDeclareComponentUnknownStorageKeyword(t *testing.T) {
	_, err := ecs.DeclareComponent(ecs.Storage("SparseSet"))
	require.Error(t, err)

	var declErr *ecs.DeclarationError
	require.ErrorAs(t, err, &declErr)
	assert.Equal(t, "storage", declErr.Key)
	assert.Equal(t, "SparseSet", declErr.Value)
}

func TestDeclareComponentUnknownKey(t *testing.T) {
	_, err := ecs.DeclareComponent(ecs.Unknown("replication"))
	require.Error(t, err)

	var declErr *ecs.DeclarationError
	require.ErrorAs(t, err, &declErr)
	assert.Equal(t, "replication", declErr.Key)
}

func TestDeclareResourceRejectsStorage(t *testing.T) {
	_, err := ecs.DeclareResource(ecs.Storage("Dense"))
	require.Error(t, err)

	var declErr *ecs.DeclarationError
	require.ErrorAs(t, err, &declErr)
	assert.Equal(t, "storage", declErr.Key)
	assert.Equal(t, "resource", declErr.Kind)
}

func TestDeclareResourceChangeDetection(t *testing.T) {
	decl, err := ecs.DeclareResource(ecs.ChangeDetection(false))
	require.NoError(t, err)
	assert.False(t, decl.ChangeDetection)
}
