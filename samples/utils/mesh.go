package utils

import (
	"io"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// MeshBuffers holds a mesh uploaded to device local memory.
type MeshBuffers struct {
	Vertices   *Buffer
	Indices    *Buffer
	IndexCount int
}

func VertexBindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func VertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.TexCoord)),
		},
	}
}

// LoadMesh decodes a Wavefront obj, triangulating polygons as fans and
// sharing vertices that reuse the same position and uv indices.
func LoadMesh(meshReader, materialReader io.Reader) (*Mesh, error) {
	decoder, err := obj.DecodeReader(meshReader, materialReader)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	type vertexKey struct{ position, uv int }
	unique := make(map[vertexKey]uint32)
	mesh := &Mesh{}

	addVertex := func(face obj.Face, faceIndex int) error {
		vertInd := face.Vertices[faceIndex]
		uvInd := -1
		if faceIndex < len(face.Uvs) {
			uvInd = face.Uvs[faceIndex]
		}

		key := vertexKey{position: vertInd, uv: uvInd}
		index, exists := unique[key]
		if !exists {
			if vertInd < 0 || vertInd*3+2 >= len(decoder.Vertices) {
				return errors.Newf("face references missing vertex %d", vertInd)
			}

			vert := Vertex{Position: mgl32.Vec3{
				decoder.Vertices[vertInd*3],
				decoder.Vertices[vertInd*3+1],
				decoder.Vertices[vertInd*3+2],
			}}
			if uvInd >= 0 && uvInd*2+1 < len(decoder.Uvs) {
				vert.TexCoord = mgl32.Vec2{
					decoder.Uvs[uvInd*2],
					1.0 - decoder.Uvs[uvInd*2+1],
				}
			}

			index = uint32(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, vert)
			unique[key] = index
		}

		mesh.Indices = append(mesh.Indices, index)
		return nil
	}

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					if err := addVertex(face, corner); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if len(mesh.Indices) == 0 {
		return nil, errors.New("obj has no faces")
	}
	return mesh, nil
}

func (i *SampleInfo) UploadMesh(mesh *Mesh) (*MeshBuffers, error) {
	vertices, err := i.CreateDeviceLocalBuffer(mesh.Vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertices")
	}

	indices, err := i.CreateDeviceLocalBuffer(mesh.Indices, core1_0.BufferUsageIndexBuffer)
	if err != nil {
		i.DestroyBuffer(vertices)
		return nil, errors.Wrap(err, "upload indices")
	}

	return &MeshBuffers{Vertices: vertices, Indices: indices, IndexCount: len(mesh.Indices)}, nil
}

func (i *SampleInfo) TrackMesh(name string, buffers *MeshBuffers) *MeshBuffers {
	i.TrackBuffer(name+" vertices", buffers.Vertices)
	i.TrackBuffer(name+" indices", buffers.Indices)
	return buffers
}

// Bind records the vertex and index buffer binds for a DrawIndexed.
func (m *MeshBuffers) Bind(driver core1_0.DeviceDriver, cmd core1_0.CommandBuffer) {
	driver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{m.Vertices.Buffer}, []int{0})
	driver.CmdBindIndexBuffer(cmd, m.Indices.Buffer, 0, core1_0.IndexTypeUInt32)
}
