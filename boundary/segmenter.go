package boundary

import (
	"image"

	"github.com/nvr-ai/go-silhouette/images"
	"github.com/nvr-ai/go-silhouette/images/kernels"
	"github.com/nvr-ai/go-silhouette/params"
)

const (
	// AdaptiveBlockSize is the side of the neighbourhood the local mean is taken over.
	AdaptiveBlockSize = 11
	// AdaptiveOffset is subtracted from the local mean before comparing.
	AdaptiveOffset = 2.0
)

// Segmenter turns a colour frame into a binary boundary mask.
type Segmenter struct {
	opt kernels.Options
}

// NewSegmenter creates a segmenter. pool may be nil.
func NewSegmenter(pool *kernels.Pool, parallel bool) *Segmenter {
	return &Segmenter{opt: kernels.Options{Pool: pool, Parallel: parallel}}
}

// Segment converts frame to intensity, marks pixels that are darker than
// their Gaussian weighted neighbourhood and dilates the result so small gaps
// in the boundaries close.
//
// Arguments:
//   - frame: The input frame. It is not modified.
//   - p: The parameter snapshot for this frame. Only DilationKernelSize is
//     used; values below 1 act as 1.
//
// Returns:
//   - A binary mask (0 or 255) with the frame's dimensions and origin (0, 0).
//
// @example
// mask := seg.Segment(frame, store.Snapshot())
func (s *Segmenter) Segment(frame image.Image, p params.Set) *image.Gray {
	gray := images.ToGray(frame)
	binary := kernels.AdaptiveThresholdGray(gray, AdaptiveBlockSize, AdaptiveOffset, kernels.ThresholdBinaryInv, s.opt)
	s.opt.Pool.PutGray(gray)

	size := max(1, p.DilationKernelSize)
	if size == 1 {
		return binary
	}
	dilated := kernels.Dilate(binary, size, s.opt)
	s.opt.Pool.PutGray(binary)
	return dilated
}
