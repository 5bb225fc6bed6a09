// Package procedural generates the small noisy test images the descriptor
// samples bind, and the colour statistics used to check what was drawn.
package procedural

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSeed = 42
	ImageSize   = 16

	// NoiseAmplitude is the exclusive upper bound of the noise added to each
	// channel.
	NoiseAmplitude = 0.1
)

// Color is a linear RGB triple with channels in [0, 1].
type Color [3]float32

func (c Color) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c[0], c[1], c[2])
}

// Distance returns the largest per-channel difference between c and other.
func (c Color) Distance(other Color) float32 {
	var distance float32
	for i := range c {
		distance = max(distance, float32(math.Abs(float64(c[i]-other[i]))))
	}
	return distance
}

func Clamp[T constraints.Ordered](value, low, high T) T {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// Palette returns count colours with evenly spaced hues. Value is kept low
// enough that adding noise never saturates a channel.
func Palette(count int) []Color {
	colors := make([]Color, count)
	for i := range colors {
		colors[i] = hsv(float64(i)/float64(count), 0.8, 1.0-NoiseAmplitude-0.05)
	}
	return colors
}

func hsv(h, s, v float64) Color {
	h = math.Mod(h, 1) * 6
	sector := int(h)
	f := h - float64(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return Color{float32(r), float32(g), float32(b)}
}

// Generate fills a size x size image with base plus uniform noise in
// [0, NoiseAmplitude) per channel, drawn from seed. Alpha is opaque.
func Generate(base Color, seed int64, size int) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var channels [3]uint8
			for c := range channels {
				value := Clamp(base[c]+rng.Float32()*NoiseAmplitude, 0, 1)
				channels[c] = uint8(math.Round(float64(value) * 255))
			}
			img.SetRGBA(x, y, color.RGBA{R: channels[0], G: channels[1], B: channels[2], A: 255})
		}
	}

	return img
}

// GenerateAll builds one image per palette entry. Image i is seeded with
// seed+i so the result does not depend on scheduling.
func GenerateAll(seed int64, palette []Color, size int) ([]*image.RGBA, error) {
	if size <= 0 {
		return nil, errors.Newf("invalid image size %d", size)
	}

	images := make([]*image.RGBA, len(palette))

	var group errgroup.Group
	for i, base := range palette {
		group.Go(func() error {
			images[i] = Generate(base, seed+int64(i), size)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// Average returns the mean colour of the whole image.
func Average(img image.Image) Color {
	return AverageRect(img, img.Bounds())
}

// AverageRect returns the mean colour of rect, clipped to the image bounds.
func AverageRect(img image.Image, rect image.Rectangle) Color {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return Color{}
	}

	var sum [3]float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sum[0] += float64(r >> 8)
			sum[1] += float64(g >> 8)
			sum[2] += float64(b >> 8)
		}
	}

	count := float64(rect.Dx() * rect.Dy() * 255)
	return Color{float32(sum[0] / count), float32(sum[1] / count), float32(sum[2] / count)}
}

// Expected is the mean colour an image generated from base converges to.
func Expected(base Color) Color {
	var expected Color
	for c := range base {
		expected[c] = Clamp(base[c]+NoiseAmplitude/2, 0, 1)
	}
	return expected
}

// InRange reports whether every channel of c could be the average of pixels
// generated from base, give or take tolerance.
func InRange(c, base Color, tolerance float32) bool {
	for i := range c {
		low := Clamp(base[i], 0, 1) - tolerance
		high := Clamp(base[i]+NoiseAmplitude, 0, 1) + tolerance
		if c[i] < low || c[i] > high {
			return false
		}
	}
	return true
}

// Nearest returns the index of the palette entry whose expected average is
// closest to c, or -1 for an empty palette.
func Nearest(c Color, palette []Color) int {
	nearest := -1
	var best float32
	for i, base := range palette {
		expected := Expected(base)
		var distance float32
		for ch := range c {
			d := c[ch] - expected[ch]
			distance += d * d
		}
		if nearest < 0 || distance < best {
			nearest, best = i, distance
		}
	}
	return nearest
}

// Matches reports whether c is the average of an image generated from
// palette[index]: it must lie within tolerance of that image's range and be
// closer to it than to any other entry.
func Matches(c Color, palette []Color, index int, tolerance float32) bool {
	if index < 0 || index >= len(palette) {
		return false
	}
	return InRange(c, palette[index], tolerance) && Nearest(c, palette) == index
}
