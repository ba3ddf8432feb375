package kernels

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-silhouette/images"
)

// GaussianBlurGray applies a separable Gaussian blur of odd size ksize to a
// single-channel image. sigma <= 0 derives the sigma from ksize.
//
// The horizontal pass writes float32 sums into a scratch buffer so the only
// rounding happens once, when the vertical pass stores the result.
//
// Arguments:
//   - src: The image to blur.
//   - ksize: Odd kernel side length. Values < 3 return a copy.
//   - sigma: Gaussian standard deviation.
//   - opt: Buffer pool and parallelism. Borders replicate the outermost pixel.
//
// Returns:
//   - A new *image.Gray with the bounds of src.
//
// @example
// mean := GaussianBlurGray(gray, 11, 0, Options{Parallel: true})
func GaussianBlurGray(src *image.Gray, ksize int, sigma float64, opt Options) *image.Gray {
	b := src.Rect
	dst := opt.Pool.GetGray(b)
	w, h := b.Dx(), b.Dy()
	if ksize < 3 || w == 0 || h == 0 {
		for y := 0; y < h; y++ {
			copy(row(dst, y), row(src, y))
		}
		return dst
	}
	if ksize%2 == 0 {
		ksize++
	}
	if sigma <= 0 {
		sigma = images.SigmaForKernelSize(ksize)
	}
	r := ksize / 2
	k64 := images.GenerateGaussianKernel(r, sigma)
	kernel := make([]float32, len(k64))
	for i, v := range k64 {
		kernel[i] = float32(v)
	}

	tmp := opt.Pool.getFloats(w * h)
	defer opt.Pool.putFloats(tmp)

	// Column lookup tables keep the border handling out of the hot loops.
	xIdx := make([]int, w+2*r)
	for i := range xIdx {
		xIdx[i] = images.ClampInt(i-r, 0, w-1)
	}
	yIdx := make([]int, h+2*r)
	for i := range yIdx {
		yIdx[i] = images.ClampInt(i-r, 0, h-1)
	}

	forEach(h, opt.Parallel, func(y int) {
		in := row(src, y)
		out := tmp[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float32
			taps := xIdx[x : x+len(kernel)]
			for i, k := range kernel {
				sum += k * float32(in[taps[i]])
			}
			out[x] = sum
		}
	})

	forEach(w, opt.Parallel, func(x int) {
		for y := 0; y < h; y++ {
			taps := yIdx[y : y+len(kernel)]
			var sum float32
			for i, k := range kernel {
				sum += k * tmp[taps[i]*w+x]
			}
			dst.Pix[y*dst.Stride+x] = uint8(images.Clamp(float64(math32.Round(sum)), 0, 255))
		}
	})

	return dst
}
