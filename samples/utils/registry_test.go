package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ReleaseAllNewestFirst(t *testing.T) {
	var released []string
	registry := &Registry{}

	for _, name := range []string{"layout", "buffer", "memory", "view"} {
		registry.Track(name, func() { released = append(released, name) })
	}
	require.Equal(t, []string{"layout", "buffer", "memory", "view"}, registry.names())

	registry.ReleaseAll()
	require.Equal(t, []string{"view", "memory", "buffer", "layout"}, released)
	require.Empty(t, registry.names())

	registry.ReleaseAll()
	require.Len(t, released, 4)
}

func TestRegistry_Release(t *testing.T) {
	var released []string
	registry := &Registry{}

	registry.Track("a", func() { released = append(released, "a") })
	b := registry.Track("b", func() { released = append(released, "b") })
	registry.Track("c", func() { released = append(released, "c") })

	require.NoError(t, registry.Release(b))
	require.Equal(t, []string{"b"}, released)
	require.Equal(t, []string{"a", "c"}, registry.names())

	require.Error(t, registry.Release(b))
	require.Error(t, registry.Release(uuid.New()))

	registry.ReleaseAll()
	require.Equal(t, []string{"b", "c", "a"}, released)
}

func TestRegistry_Replace(t *testing.T) {
	var released []string
	registry := &Registry{}

	registry.Track("layout", func() { released = append(released, "layout") })
	first := registry.Track("pipeline 1", func() { released = append(released, "pipeline 1") })

	second, err := registry.Replace(first, "pipeline 2", func() { released = append(released, "pipeline 2") })
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, []string{"pipeline 1"}, released)
	require.Equal(t, []string{"layout", "pipeline 2"}, registry.names())

	// the replacement stays tracked even when the old id is unknown
	third, err := registry.Replace(first, "pipeline 3", func() { released = append(released, "pipeline 3") })
	require.Error(t, err)
	require.Equal(t, []string{"layout", "pipeline 2", "pipeline 3"}, registry.names())

	require.NoError(t, registry.Release(third))
	registry.ReleaseAll()
	require.Equal(t, []string{"pipeline 1", "pipeline 3", "pipeline 2", "layout"}, released)
}
