package boundary

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-silhouette/images/kernels"
	"github.com/nvr-ai/go-silhouette/params"
)

func TestSegmentUniformFrameIsEmpty(t *testing.T) {
	seg := NewSegmenter(nil, false)
	frame := squareFrame(64, 48, image.Rectangle{})
	mask := seg.Segment(frame, params.Defaults())
	require.Equal(t, image.Rect(0, 0, 64, 48), mask.Rect)
	assert.Zero(t, countNonZero(mask))
}

func TestSegmentMarksRingAroundBrightSquare(t *testing.T) {
	seg := NewSegmenter(&kernels.Pool{}, true)
	frame := squareFrame(100, 100, image.Rect(25, 25, 75, 75))
	mask := seg.Segment(frame, params.Defaults())

	for _, v := range mask.Pix {
		require.True(t, v == 0 || v == 255)
	}
	// Dark pixels right next to the square are below their local mean.
	assert.Equal(t, uint8(255), mask.GrayAt(23, 50).Y)
	assert.Equal(t, uint8(255), mask.GrayAt(50, 76).Y)
	// The square itself and far away background are not.
	assert.Equal(t, uint8(0), mask.GrayAt(50, 50).Y)
	assert.Equal(t, uint8(0), mask.GrayAt(3, 3).Y)
}

func TestSegmentDilationKernel(t *testing.T) {
	seg := NewSegmenter(nil, false)
	frame := squareFrame(100, 100, image.Rect(25, 25, 75, 75))

	base := params.Defaults()
	one := seg.Segment(frame, base)

	zero := base
	zero.DilationKernelSize = 0
	assert.Equal(t, one.Pix, seg.Segment(frame, zero).Pix, "kernel sizes below one act as one")

	wide := base
	wide.DilationKernelSize = 5
	assert.Greater(t, countNonZero(seg.Segment(frame, wide)), countNonZero(one))
}

func TestSegmentDoesNotModifyInput(t *testing.T) {
	frame := squareFrame(40, 40, image.Rect(10, 10, 30, 30))
	before := append([]uint8(nil), frame.Pix...)
	NewSegmenter(nil, false).Segment(frame, params.Defaults())
	assert.Equal(t, before, frame.Pix)
}
