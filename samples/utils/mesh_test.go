package utils

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

const quadObj = `o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func TestLoadMesh(t *testing.T) {
	mesh, err := LoadMesh(strings.NewReader(quadObj), strings.NewReader(""))
	require.NoError(t, err)

	require.Len(t, mesh.Vertices, 4)
	require.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)

	require.Equal(t, mgl32.Vec3{1, 1, 0}, mesh.Vertices[2].Position)
	// v is flipped into Vulkan's top-left origin
	require.Equal(t, mgl32.Vec2{1, 0}, mesh.Vertices[2].TexCoord)
	require.Equal(t, mgl32.Vec2{0, 1}, mesh.Vertices[0].TexCoord)
}

func TestLoadMesh_NoFaces(t *testing.T) {
	_, err := LoadMesh(strings.NewReader("o empty\nv 0 0 0\n"), strings.NewReader(""))
	require.Error(t, err)
}

func TestVertexLayout(t *testing.T) {
	bindings := VertexBindingDescriptions()
	require.Len(t, bindings, 1)
	require.Equal(t, 20, bindings[0].Stride)
	require.Equal(t, int(unsafe.Sizeof(Vertex{})), bindings[0].Stride)

	attributes := VertexAttributeDescriptions()
	require.Len(t, attributes, 2)
	require.Equal(t, 0, attributes[0].Offset)
	require.Equal(t, 12, attributes[1].Offset)
}
