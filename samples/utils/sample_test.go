package utils

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
)

func TestDrawer_Checkbox(t *testing.T) {
	animate := true
	paused := false

	drawer := &Drawer{}
	drawer.Checkbox("animate", &animate)
	drawer.Checkbox("paused", &paused)

	require.Equal(t, "cubes - 1 [x] animate  2 [ ] paused", drawer.Title("cubes"))

	require.True(t, drawer.HandleKey(sdl.Keycode(sdl.K_1)))
	require.False(t, animate)
	require.True(t, drawer.HandleKey(sdl.Keycode(sdl.K_2)))
	require.True(t, paused)
	require.False(t, drawer.HandleKey(sdl.Keycode(sdl.K_3)))

	require.Equal(t, "cubes - 1 [ ] animate  2 [x] paused", drawer.Title("cubes"))
}

func TestDrawer_RedeclaredCheckboxKeepsKey(t *testing.T) {
	first := false
	second := false

	drawer := &Drawer{}
	drawer.Checkbox("animate", &first)
	drawer.Checkbox("animate", &second)

	require.True(t, drawer.HandleKey(sdl.Keycode(sdl.K_1)))
	require.False(t, first)
	require.True(t, second)
	require.Equal(t, "quads", (&Drawer{}).Title("quads"))
}

func TestFeatureRequest_RequireExtension(t *testing.T) {
	request := &FeatureRequest{available: map[string]bool{"VK_EXT_descriptor_buffer": true}}

	require.NoError(t, request.RequireExtension("VK_EXT_descriptor_buffer"))
	require.Equal(t, []string{"VK_EXT_descriptor_buffer"}, request.Extensions)

	err := request.RequireExtension("VK_EXT_mesh_shader")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFeatureNotSupported))
	require.Len(t, request.Extensions, 1)
}
