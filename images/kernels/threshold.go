package kernels

import (
	"image"
	"math"
)

// ThresholdMode selects which side of the local threshold becomes foreground.
type ThresholdMode int

const (
	// ThresholdBinary marks pixels brighter than the local threshold.
	ThresholdBinary ThresholdMode = iota
	// ThresholdBinaryInv marks pixels darker than the local threshold.
	ThresholdBinaryInv
)

// AdaptiveThresholdGray binarizes src against a Gaussian weighted local mean.
//
// A pixel's threshold is mean(x, y) - c, where mean is the blockSize x blockSize
// Gaussian average around it. With ThresholdBinaryInv a pixel becomes 255 when
// src - mean <= -c, otherwise 0. The offset is rounded towards the stricter
// side for integer comparisons (floor for the inverse mode, ceil otherwise).
//
// Arguments:
//   - src: The grayscale input.
//   - blockSize: Odd neighbourhood size (>= 3).
//   - c: Constant subtracted from the local mean.
//   - mode: ThresholdBinary or ThresholdBinaryInv.
//   - opt: Pool and parallelism. Borders replicate the outermost pixel.
//
// Returns:
//   - A binary *image.Gray (values 0 or 255) with the bounds of src.
func AdaptiveThresholdGray(src *image.Gray, blockSize int, c float64, mode ThresholdMode, opt Options) *image.Gray {
	mean := GaussianBlurGray(src, blockSize, 0, opt)
	defer opt.Pool.PutGray(mean)

	var lut [511]uint8
	var delta int
	if mode == ThresholdBinaryInv {
		delta = int(math.Floor(c))
	} else {
		delta = int(math.Ceil(c))
	}
	for i := range lut {
		d := i - 255
		fg := d > -delta
		if mode == ThresholdBinaryInv {
			fg = !fg
		}
		if fg {
			lut[i] = 255
		}
	}

	dst := opt.Pool.GetGray(src.Rect)
	forEach(src.Rect.Dy(), opt.Parallel, func(y int) {
		in, m, out := row(src, y), row(mean, y), row(dst, y)
		for x := range out {
			out[x] = lut[int(in[x])-int(m[x])+255]
		}
	})
	return dst
}
