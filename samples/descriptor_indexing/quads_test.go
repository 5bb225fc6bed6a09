package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
)

func TestGridSize(t *testing.T) {
	testCases := []struct {
		count, cols, rows int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 2, 1},
		{5, 3, 2},
		{64, 8, 8},
		{65, 9, 8},
	}

	for _, tc := range testCases {
		cols, rows := GridSize(tc.count)
		require.Equal(t, tc.cols, cols, "count %d", tc.count)
		require.Equal(t, tc.rows, rows, "count %d", tc.count)
		require.GreaterOrEqual(t, cols*rows, tc.count)
	}
}

func TestQuadRect(t *testing.T) {
	bounds := image.Rect(0, 0, 800, 640)

	require.Equal(t, image.Rect(125, 370, 175, 390), QuadRect(9, 8, 8, regionStreaming, bounds, 0.25))
	require.Equal(t, image.Rect(0, 0, 100, 40), QuadRect(0, 8, 8, regionNonUniform, bounds, 0))
	require.Equal(t, image.Rect(700, 600, 800, 640), QuadRect(63, 8, 8, regionStreaming, bounds, 0))
}

func TestQuadRect_CellsTileTheFramebuffer(t *testing.T) {
	bounds := image.Rect(0, 0, 1280, 720)
	cols, rows := GridSize(64)

	covered := 0
	for region := 0; region < regionCount; region++ {
		for quad := 0; quad < cols*rows; quad++ {
			cell := QuadRect(quad, cols, rows, region, bounds, 0)
			require.True(t, cell.In(bounds), "region %d quad %d: %v", region, quad, cell)
			covered += cell.Dx() * cell.Dy()
		}
	}
	require.Equal(t, bounds.Dx()*bounds.Dy(), covered)
}

func TestProbeFitsSmallestQuad(t *testing.T) {
	smallest := (1 - 2*quadMargin) * minQuadScale
	require.LessOrEqual(t, 1-2*sampleInset, smallest)
}

func TestPushConstantsSize(t *testing.T) {
	data, err := utils.EncodeData(&PushConstants{})
	require.NoError(t, err)
	require.Len(t, data, pushConstantsSize)
}
