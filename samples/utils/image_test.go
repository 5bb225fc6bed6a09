package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestConvertPixels(t *testing.T) {
	// 2x2 with 4 bytes of row padding
	data := []byte{
		10, 20, 30, 255, 40, 50, 60, 255, 0, 0, 0, 0,
		70, 80, 90, 255, 1, 2, 3, 4, 0, 0, 0, 0,
	}

	bgra, err := ConvertPixels(data, core1_0.FormatB8G8R8A8UnsignedNormalized, 2, 2, 12)
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 30, G: 20, B: 10, A: 255}, bgra.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{R: 3, G: 2, B: 1, A: 4}, bgra.RGBAAt(1, 1))

	rgba, err := ConvertPixels(data, core1_0.FormatR8G8B8A8UnsignedNormalized, 2, 2, 12)
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 40, G: 50, B: 60, A: 255}, rgba.RGBAAt(1, 0))
	require.Equal(t, color.RGBA{R: 70, G: 80, B: 90, A: 255}, rgba.RGBAAt(0, 1))
}

func TestConvertPixels_Errors(t *testing.T) {
	_, err := ConvertPixels(make([]byte, 16), core1_0.FormatD32SignedFloat, 2, 2, 8)
	require.Error(t, err)

	_, err = ConvertPixels(make([]byte, 15), core1_0.FormatR8G8B8A8UnsignedNormalized, 2, 2, 8)
	require.Error(t, err)

	_, err = ConvertPixels(make([]byte, 16), core1_0.FormatR8G8B8A8UnsignedNormalized, 2, 2, 4)
	require.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, WritePNG(path, img))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	decoded, err := png.Decode(file)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 2), decoded.Bounds())

	r, g, b, _ := decoded.At(2, 1).RGBA()
	require.Equal(t, []uint32{200, 100, 50}, []uint32{r >> 8, g >> 8, b >> 8})
}
