package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbcli/internal/pipeline"
)

// mockStage is a scriptable stage for orchestration tests
type mockStage struct {
	pipeline.BaseStage
	executeFn  func(ctx context.Context, state *pipeline.RunState) error
	validateFn func(state *pipeline.RunState) error
}

func newMockStage(id, name string, deps []string) *mockStage {
	return &mockStage{BaseStage: pipeline.NewBaseStage(id, name, deps)}
}

func (m *mockStage) Execute(ctx context.Context, state *pipeline.RunState) error {
	if m.executeFn != nil {
		return m.executeFn(ctx, state)
	}
	return nil
}

func (m *mockStage) Validate(state *pipeline.RunState) error {
	if m.validateFn != nil {
		return m.validateFn(state)
	}
	return nil
}

func TestRegistryEmpty(t *testing.T) {
	registry := pipeline.NewRegistry()

	assert.Equal(t, 0, registry.Count())
	assert.NotNil(t, registry.List())
	assert.Empty(t, registry.List())
}

func TestRegistryRegister(t *testing.T) {
	registry := pipeline.NewRegistry()

	one := newMockStage("one", "Stage One", nil)
	two := newMockStage("two", "Stage Two", nil)
	require.NoError(t, registry.Register(one))
	require.NoError(t, registry.Register(two))

	assert.Equal(t, 2, registry.Count())
	assert.True(t, registry.Has("one"))

	got, err := registry.Get("one")
	require.NoError(t, err)
	assert.Same(t, one, got)

	assert.Equal(t, []string{"one", "two"}, registry.ListIDs())
}

func TestRegistryRegisterErrors(t *testing.T) {
	registry := pipeline.NewRegistry()

	err := registry.Register(nil)
	assert.ErrorContains(t, err, "nil stage")

	err = registry.Register(newMockStage("", "Anonymous", nil))
	assert.ErrorContains(t, err, "ID cannot be empty")

	stage := newMockStage("dup", "Duplicate", nil)
	require.NoError(t, registry.Register(stage))
	err = registry.Register(stage)
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistryDependencyOrder(t *testing.T) {
	registry := pipeline.NewRegistry()

	// Diamond: merge needs both branches, branches need load
	require.NoError(t, registry.Register(newMockStage("merge", "Merge", []string{"left", "right"})))
	require.NoError(t, registry.Register(newMockStage("left", "Left", []string{"load"})))
	require.NoError(t, registry.Register(newMockStage("right", "Right", []string{"load"})))
	require.NoError(t, registry.Register(newMockStage("load", "Load", nil)))

	ordered, err := registry.DependencyOrder()
	require.NoError(t, err)
	require.Len(t, ordered, 4)

	position := make(map[string]int)
	for i, stage := range ordered {
		position[stage.ID()] = i
	}
	assert.Less(t, position["load"], position["left"])
	assert.Less(t, position["load"], position["right"])
	assert.Less(t, position["left"], position["merge"])
	assert.Less(t, position["right"], position["merge"])

	// Registration order breaks ties between the two branches
	assert.Less(t, position["left"], position["right"])
}

func TestRegistryDependencyOrderCycle(t *testing.T) {
	registry := pipeline.NewRegistry()

	require.NoError(t, registry.Register(newMockStage("a", "A", []string{"b"})))
	require.NoError(t, registry.Register(newMockStage("b", "B", []string{"a"})))

	_, err := registry.DependencyOrder()
	assert.ErrorContains(t, err, "cycle")
}

func TestRegistryMissingDependency(t *testing.T) {
	registry := pipeline.NewRegistry()

	require.NoError(t, registry.Register(newMockStage("clean", "Clean", []string{"load"})))

	_, err := registry.DependencyOrder()
	assert.ErrorContains(t, err, "non-existent")

	assert.Error(t, registry.ValidateDependencies())
}

func TestRegistryValidateDependencies(t *testing.T) {
	registry := pipeline.NewRegistry()

	require.NoError(t, registry.Register(newMockStage("load", "Load", nil)))
	require.NoError(t, registry.Register(newMockStage("clean", "Clean", []string{"load"})))

	assert.NoError(t, registry.ValidateDependencies())
}
