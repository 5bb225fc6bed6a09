package main

import (
	"image"
	"image/draw"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/descriptor-examples/descriptors/bindless"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
	"github.com/vkngwrapper/descriptor-examples/samples/utils/procedural"
)

// tableWriter stands in for a descriptor set: the table is what a shader
// indexing the set would see.
type tableWriter struct {
	table []int
}

func (w *tableWriter) WriteSlots(first int, images []int) error {
	copy(w.table[first:], images)
	return nil
}

func newTestSample(t *testing.T, capacity, count int) (*Sample, []*image.RGBA) {
	s := NewSample(capacity, count)
	s.palette = procedural.Palette(count)

	images, err := procedural.GenerateAll(procedural.DefaultSeed, s.palette, procedural.ImageSize)
	require.NoError(t, err)
	return s, images
}

// rasterize stands in for the GPU: every quad is filled with a nearest-scaled
// copy of whichever image its slot holds, at the smallest pulse size.
func rasterize(s *Sample, bounds image.Rectangle, images []*image.RGBA, nonUniform, streaming func(quad int) int) *image.RGBA {
	frame := image.NewRGBA(bounds)
	quadInset := float32(1-(1-2*quadMargin)*minQuadScale) / 2

	fill := func(dst image.Rectangle, src *image.RGBA) {
		for y := dst.Min.Y; y < dst.Max.Y; y++ {
			for x := dst.Min.X; x < dst.Max.X; x++ {
				u := (x - dst.Min.X) * src.Bounds().Dx() / dst.Dx()
				v := (y - dst.Min.Y) * src.Bounds().Dy() / dst.Dy()
				frame.Set(x, y, src.At(u, v))
			}
		}
	}

	for quad := 0; quad < s.count; quad++ {
		fill(QuadRect(quad, s.cols, s.rows, regionNonUniform, bounds, quadInset), images[nonUniform(quad)])
		fill(QuadRect(quad, s.cols, s.rows, regionStreaming, bounds, quadInset), images[streaming(quad)])
	}
	return frame
}

func TestImageMappings(t *testing.T) {
	s, _ := newTestSample(t, 2048, 64)

	for _, shift := range []int{0, 32} {
		var nonUniform, streamed []int
		for slot := 0; slot < s.count; slot++ {
			nonUniform = append(nonUniform, NonUniformImage(s.order, shift, slot))
			streamed = append(streamed, StreamedImage(s.count, shift, slot))
		}

		// both are permutations of the test images
		sort.Ints(nonUniform)
		sort.Ints(streamed)
		for i := 0; i < s.count; i++ {
			require.Equal(t, i, nonUniform[i])
			require.Equal(t, i, streamed[i])
		}
	}

	for slot := 0; slot < s.count; slot++ {
		require.NotEqual(t, NonUniformImage(s.order, 0, slot), NonUniformImage(s.order, 32, slot))
	}
}

func TestStreamingIndicesStayInHeap(t *testing.T) {
	s, _ := newTestSample(t, 2048, 64)
	writer := &tableWriter{table: make([]int, s.capacity)}
	heap, err := bindless.New[int](s.capacity, -1, writer)
	require.NoError(t, err)
	window, err := bindless.NewWindow(s.capacity, s.count)
	require.NoError(t, err)

	for frame := 0; frame < 1000; frame++ {
		for i := 0; i < window.Size(); i++ {
			require.Less(t, heap.Select(window.Slot(i)), uint32(s.capacity))
		}
		window.Advance()
	}
}

func TestCheckFrame_HeapEndToEnd(t *testing.T) {
	bounds := image.Rect(0, 0, 1280, 720)
	s, images := newTestSample(t, 64, 64)

	nonUniformTable := &tableWriter{table: make([]int, s.count)}
	nonUniform, err := bindless.New[int](s.count, -1, nonUniformTable)
	require.NoError(t, err)

	streamingTable := &tableWriter{table: make([]int, s.capacity)}
	streaming, err := bindless.New[int](s.capacity, -1, streamingTable)
	require.NoError(t, err)
	window, err := bindless.NewWindow(s.capacity, s.count)
	require.NoError(t, err)

	bindAll := func() {
		slots := make([]int, s.count)
		for slot := range slots {
			slots[slot] = NonUniformImage(s.order, s.shift, slot)
		}
		require.NoError(t, nonUniform.BindRange(0, slots))

		streamed := make([]int, s.count)
		for i := range streamed {
			streamed[i] = StreamedImage(s.count, s.shift, i)
		}
		require.NoError(t, streaming.BindRange(window.Base(), streamed))
	}

	render := func() *image.RGBA {
		return rasterize(s, bounds, images,
			func(quad int) int { return nonUniformTable.table[nonUniform.Select(quad)] },
			func(quad int) int { return streamingTable.table[streaming.Select(window.Slot(quad))] },
		)
	}

	bindAll()
	require.Equal(t, s.count, nonUniform.BoundCount())
	require.NoError(t, s.checkFrame(render()))

	// rebinding without redrawing leaves the old images on screen
	s.shift = s.count / 2
	stale := render()
	bindAll()
	require.ErrorIs(t, s.checkFrame(stale), utils.ErrVerificationFailed)

	require.NoError(t, s.checkFrame(render()))
}

func TestCheckFrame_BlankFrameFails(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)
	s, _ := newTestSample(t, 64, 64)

	frame := image.NewRGBA(bounds)
	draw.Draw(frame, bounds, image.Black, image.Point{}, draw.Src)

	err := s.checkFrame(frame)
	require.ErrorIs(t, err, utils.ErrVerificationFailed)
	require.ErrorContains(t, err, "128 quads")
}

func TestCheckFrame_NeighbouringImageFails(t *testing.T) {
	bounds := image.Rect(0, 0, 1280, 720)
	s, images := newTestSample(t, 64, 64)

	frame := rasterize(s, bounds, images,
		func(quad int) int { return (NonUniformImage(s.order, s.shift, quad) + 1) % s.count },
		func(quad int) int { return (StreamedImage(s.count, s.shift, quad) + 1) % s.count },
	)

	err := s.checkFrame(frame)
	require.ErrorIs(t, err, utils.ErrVerificationFailed)
	require.ErrorContains(t, err, "128 of 128 quads")
}
