package procedural

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	base := Color{0.2, 0.4, 0.6}

	first := Generate(base, DefaultSeed, ImageSize)
	second := Generate(base, DefaultSeed, ImageSize)
	other := Generate(base, DefaultSeed+1, ImageSize)

	require.Equal(t, first.Pix, second.Pix)
	require.NotEqual(t, first.Pix, other.Pix)
	require.Equal(t, image.Rect(0, 0, ImageSize, ImageSize), first.Bounds())
}

func TestGenerate_NoiseRange(t *testing.T) {
	base := Color{0.1, 0.5, 0.8}
	img := Generate(base, 7, 32)

	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			value := float32(img.Pix[i+c]) / 255
			require.GreaterOrEqual(t, value, base[c]-0.5/255)
			require.LessOrEqual(t, value, base[c]+NoiseAmplitude+0.5/255)
		}
		require.Equal(t, uint8(255), img.Pix[i+3])
	}
}

func TestGenerate_Clamped(t *testing.T) {
	img := Generate(Color{1, 0.98, -0.2}, 3, 4)
	for i := 0; i < len(img.Pix); i += 4 {
		require.Equal(t, uint8(255), img.Pix[i])
		require.Equal(t, uint8(0), img.Pix[i+2])
	}
}

func TestAverage_ConvergesToExpected(t *testing.T) {
	for i, base := range Palette(64) {
		img := Generate(base, DefaultSeed+int64(i), ImageSize)
		require.Less(t, Average(img).Distance(Expected(base)), float32(0.02), "image %d", i)
	}
}

func TestPalette_Distinct(t *testing.T) {
	palette := Palette(64)
	require.Len(t, palette, 64)

	for i := range palette {
		for c := 0; c < 3; c++ {
			require.GreaterOrEqual(t, palette[i][c], float32(0))
			require.LessOrEqual(t, palette[i][c]+NoiseAmplitude, float32(1))
		}
		for j := i + 1; j < len(palette); j++ {
			require.Greater(t, palette[i].Distance(palette[j]), float32(0.02), "colours %d and %d", i, j)
		}
	}
}

func TestGenerateAll_MatchesSequential(t *testing.T) {
	palette := Palette(16)
	images, err := GenerateAll(DefaultSeed, palette, ImageSize)
	require.NoError(t, err)
	require.Len(t, images, len(palette))

	for i, base := range palette {
		require.Equal(t, Generate(base, DefaultSeed+int64(i), ImageSize).Pix, images[i].Pix)
	}

	_, err = GenerateAll(DefaultSeed, palette, 0)
	require.Error(t, err)
}

func TestAverageRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Pix[img.PixOffset(x, y)] = 255
			img.Pix[img.PixOffset(x+2, y)+2] = 255
		}
	}

	require.Equal(t, Color{1, 0, 0}, AverageRect(img, image.Rect(0, 0, 2, 2)))
	require.Equal(t, Color{0, 0, 1}, AverageRect(img, image.Rect(2, 0, 10, 10)))
	require.Equal(t, Color{0.5, 0, 0.5}, Average(img))
	require.Equal(t, Color{}, AverageRect(img, image.Rect(5, 5, 6, 6)))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0, Clamp(-3, 0, 10))
	require.Equal(t, 10, Clamp(11, 0, 10))
	require.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}

func TestInRange(t *testing.T) {
	base := Color{0.2, 0.4, 0.6}
	require.True(t, InRange(Average(Generate(base, DefaultSeed, ImageSize)), base, 0.01))
	require.True(t, InRange(Expected(base), base, 0))

	require.False(t, InRange(Color{0.2, 0.4, 0.75}, base, 0.02))
	require.False(t, InRange(Color{0.15, 0.4, 0.6}, base, 0.02))

	// a neighbouring colour from a small palette falls outside
	palette := Palette(8)
	require.False(t, InRange(Expected(palette[1]), palette[0], 0.02))
}

func TestNearest(t *testing.T) {
	palette := Palette(64)
	for i, base := range palette {
		require.Equal(t, i, Nearest(Expected(base), palette))
		require.Equal(t, i, Nearest(Average(Generate(base, DefaultSeed, ImageSize)), palette))
	}
	require.Equal(t, -1, Nearest(Color{}, nil))
}

func TestMatches_RejectsNeighbouringHue(t *testing.T) {
	palette := Palette(64)
	for i := range palette {
		neighbour := (i + 1) % len(palette)
		got := Average(Generate(palette[neighbour], DefaultSeed, ImageSize))

		require.True(t, Matches(got, palette, neighbour, 0.02))
		require.False(t, Matches(got, palette, i, 0.02), "image %d accepted as %d", neighbour, i)
	}

	require.False(t, Matches(Color{}, palette, 0, 0.02))
	require.False(t, Matches(Expected(palette[0]), palette, len(palette), 0.02))
}
