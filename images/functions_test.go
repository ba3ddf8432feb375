package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuma(t *testing.T) {
	assert.Equal(t, uint8(0), Luma(0, 0, 0))
	assert.Equal(t, uint8(255), Luma(255, 255, 255))
	// 0.299 * 255 = 76.2
	assert.Equal(t, uint8(76), Luma(255, 0, 0))
	// 0.587 * 255 = 149.7
	assert.Equal(t, uint8(150), Luma(0, 255, 0))
	// 0.114 * 255 = 29.1
	assert.Equal(t, uint8(29), Luma(0, 0, 255))
}

func TestToGrayMatchesAcrossImageTypes(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 40, 30))
	nrgba := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: uint8((x + y) * 3), A: 255}
			rgba.SetRGBA(x, y, c)
			nrgba.SetNRGBA(x, y, color.NRGBA(c))
		}
	}
	fromRGBA := ToGray(rgba)
	fromNRGBA := ToGray(nrgba)
	fromSub := ToGray(rgba.SubImage(image.Rect(10, 5, 30, 25)))

	assert.Equal(t, fromRGBA.Pix, fromNRGBA.Pix)
	require.Equal(t, image.Rect(0, 0, 20, 20), fromSub.Bounds())
	assert.Equal(t, fromRGBA.GrayAt(10, 5), fromSub.GrayAt(0, 0))
	assert.Equal(t, fromRGBA.GrayAt(29, 24), fromSub.GrayAt(19, 19))
}

func TestGenerateGaussianKernel(t *testing.T) {
	k := GenerateGaussianKernel(5, SigmaForKernelSize(11))
	require.Len(t, k, 11)

	sum := 0.0
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	for i := 0; i < 5; i++ {
		assert.InDelta(t, k[i], k[10-i], 1e-15, "kernel must be symmetric")
		assert.Less(t, k[i], k[i+1], "kernel must increase towards the centre")
	}
}

func TestSigmaForKernelSize(t *testing.T) {
	assert.InDelta(t, 2.0, SigmaForKernelSize(11), 1e-12)
	assert.InDelta(t, 1.1, SigmaForKernelSize(5), 1e-12)
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, ClampInt(-3, 0, 4))
	assert.Equal(t, 4, ClampInt(9, 0, 4))
	assert.Equal(t, 2, ClampInt(2, 0, 4))
	assert.Equal(t, 0, ClampInt(0, 0, 0))
}

func TestComputeChecksum(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 4, 4))
	b := image.NewGray(image.Rect(0, 0, 2, 8))
	assert.NotEqual(t, ComputeChecksum(a), ComputeChecksum(b))

	c := image.NewGray(image.Rect(0, 0, 4, 4))
	assert.Equal(t, ComputeChecksum(a), ComputeChecksum(c))
	c.SetGray(1, 1, color.Gray{Y: 1})
	assert.NotEqual(t, ComputeChecksum(a), ComputeChecksum(c))

	assert.Equal(t, "empty", ComputeChecksum(image.NewGray(image.Rectangle{})))
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	enc, err := Encode(img, FormatJPEG, 90)
	require.NoError(t, err)
	assert.Equal(t, 16, enc.Width)
	assert.Equal(t, 8, enc.Height)
	assert.Equal(t, []byte{0xFF, 0xD8}, enc.Data[:2])

	enc, err = Encode(img, FormatPNG, 0)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(enc.Data[:4]))

	_, err = Encode(img, ImageFormat("webp"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)
	assert.Equal(t, "image/jpeg", f.ContentType())

	f, err = ParseFormat("png")
	require.NoError(t, err)
	assert.Equal(t, ".png", f.Extension())

	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
