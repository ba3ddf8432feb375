package kernels

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func square(w, h int, r image.Rectangle, fg, bg uint8) *image.Gray {
	img := filled(w, h, bg)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: fg})
		}
	}
	return img
}

func countNonZero(img *image.Gray) int {
	n := 0
	for _, v := range img.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestGaussianBlurGrayUniformIsUnchanged(t *testing.T) {
	out := GaussianBlurGray(filled(32, 20, 137), 11, 0, Options{Parallel: true})
	require.Equal(t, image.Rect(0, 0, 32, 20), out.Rect)
	for _, v := range out.Pix {
		require.Equal(t, uint8(137), v)
	}
}

func TestGaussianBlurGrayReplicatesBorder(t *testing.T) {
	// Every tap of an 11-wide kernel on a 1x1 image lands on the single pixel.
	out := GaussianBlurGray(filled(1, 1, 200), 11, 0, Options{})
	assert.Equal(t, uint8(200), out.GrayAt(0, 0).Y)

	// A bright left column stays brightest at x=0 since the taps past the
	// border repeat it.
	src := filled(12, 3, 0)
	for y := 0; y < 3; y++ {
		src.SetGray(0, y, color.Gray{Y: 255})
	}
	out = GaussianBlurGray(src, 5, 0, Options{})
	assert.Greater(t, out.GrayAt(0, 1).Y, out.GrayAt(1, 1).Y)
	assert.Greater(t, out.GrayAt(1, 1).Y, out.GrayAt(2, 1).Y)
}

func TestGaussianBlurGraySpreadsImpulse(t *testing.T) {
	src := filled(21, 21, 0)
	src.SetGray(10, 10, color.Gray{Y: 255})
	out := GaussianBlurGray(src, 5, 0, Options{})

	assert.Less(t, out.GrayAt(10, 10).Y, uint8(255))
	assert.Greater(t, out.GrayAt(10, 10).Y, out.GrayAt(11, 10).Y)
	assert.Equal(t, out.GrayAt(9, 10), out.GrayAt(11, 10))
	assert.Equal(t, out.GrayAt(10, 9), out.GrayAt(10, 11))
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
}

func TestGaussianBlurGraySmallKernelCopies(t *testing.T) {
	src := square(8, 8, image.Rect(2, 2, 4, 4), 200, 10)
	out := GaussianBlurGray(src, 1, 0, Options{})
	assert.Equal(t, src.Pix, out.Pix)
}

func TestAdaptiveThresholdGrayUniformIsBackground(t *testing.T) {
	out := AdaptiveThresholdGray(filled(40, 30, 90), 11, 2, ThresholdBinaryInv, Options{})
	assert.Zero(t, countNonZero(out))

	// Non-inverted: src - mean = 0 > -2 so everything is foreground.
	out = AdaptiveThresholdGray(filled(40, 30, 90), 11, 2, ThresholdBinary, Options{})
	assert.Equal(t, 40*30, countNonZero(out))
}

func TestAdaptiveThresholdGrayMarksDarkSideOfEdge(t *testing.T) {
	src := square(60, 60, image.Rect(20, 20, 40, 40), 255, 0)
	out := AdaptiveThresholdGray(src, 11, 2, ThresholdBinaryInv, Options{Parallel: true})

	// Just outside the bright square the local mean is raised above the dark pixel.
	assert.Equal(t, uint8(255), out.GrayAt(18, 30).Y)
	// Far away from any edge the neighbourhood is uniform.
	assert.Equal(t, uint8(0), out.GrayAt(5, 5).Y)
	// Inside the bright square pixels are at or above the mean.
	assert.Equal(t, uint8(0), out.GrayAt(30, 30).Y)

	for _, v := range out.Pix {
		require.True(t, v == 0 || v == 255)
	}
}

func TestDilateGrowsSquare(t *testing.T) {
	src := square(20, 20, image.Rect(8, 8, 12, 12), 255, 0)
	out := Dilate(src, 3, Options{})
	// 4x4 grows by one on each side.
	assert.Equal(t, 6*6, countNonZero(out))
	assert.Equal(t, uint8(255), out.GrayAt(7, 7).Y)
	assert.Equal(t, uint8(0), out.GrayAt(6, 6).Y)
}

func TestDilateEvenKernelIsAnchoredAtHalf(t *testing.T) {
	src := filled(10, 1, 0)
	src.SetGray(5, 0, color.Gray{Y: 255})
	out := Dilate(src, 2, Options{})
	// Window is [x-1, x]; the single pixel spreads to x=5 and x=6.
	assert.Equal(t, []uint8{0, 0, 0, 0, 0, 255, 255, 0, 0, 0}, out.Pix)
}

func TestErodeShrinksAndIgnoresBorder(t *testing.T) {
	out := Erode(filled(10, 10, 255), 5, Options{})
	assert.Equal(t, 100, countNonZero(out), "out-of-bounds samples must not erode the border")

	src := square(20, 20, image.Rect(5, 5, 15, 15), 255, 0)
	out = Erode(src, 3, Options{Parallel: true})
	assert.Equal(t, 8*8, countNonZero(out))
}

func TestOpenRemovesSpecksKeepsBlocks(t *testing.T) {
	src := square(40, 40, image.Rect(10, 10, 30, 30), 255, 0)
	src.SetGray(2, 2, color.Gray{Y: 255})
	src.SetGray(3, 2, color.Gray{Y: 255})
	src.SetGray(36, 37, color.Gray{Y: 255})

	pool := &Pool{}
	out := Open(src, 5, Options{Pool: pool})
	assert.Equal(t, uint8(0), out.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(0), out.GrayAt(36, 37).Y)
	assert.Equal(t, 20*20, countNonZero(out))
}

func TestSubImageInput(t *testing.T) {
	src := square(20, 20, image.Rect(8, 8, 12, 12), 255, 0)
	sub := src.SubImage(image.Rect(5, 5, 15, 15)).(*image.Gray)
	out := Dilate(sub, 3, Options{})
	require.Equal(t, sub.Rect, out.Rect)
	assert.Equal(t, 6*6, countNonZero(out))
}
