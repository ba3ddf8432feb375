// Package images - provides the single-channel image primitives the boundary
// pipeline is built on: luma conversion, numeric helpers, Gaussian kernels and
// row-parallel execution.
package images

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"runtime"
	"sync"
)

// Fixed-point ITU-R BT.601 luma weights with a 14 bit shift. They sum to 1<<14
// so a pure white pixel maps to exactly 255.
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaRound = 1 << (lumaShift - 1)
)

// Luma returns the BT.601 intensity of an 8-bit RGB triple.
func Luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*lumaR + uint32(g)*lumaG + uint32(b)*lumaB + lumaRound) >> lumaShift)
}

// ToGray converts an image to a single-channel intensity image using ITU-R
// BT.601 luma coefficients (Y = 0.299R + 0.587G + 0.114B).
//
// The returned image always has its origin at (0, 0) regardless of the bounds
// of the source, so downstream stages can index Pix directly.
//
// Arguments:
// - img: The source image to convert.
//
// Returns:
// - A new *image.Gray with the same width and height.
//
// @example
// gray := ToGray(frame)
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+width], src.Pix[srcOff:srcOff+width])
		}
	case *image.RGBA:
		Parallel(height, func(partStart, partEnd int) {
			for y := partStart; y < partEnd; y++ {
				srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				dstOff := y * dst.Stride
				for x := 0; x < width; x++ {
					p := src.Pix[srcOff+x*4 : srcOff+x*4+3 : srcOff+x*4+3]
					dst.Pix[dstOff+x] = Luma(p[0], p[1], p[2])
				}
			}
		})
	case *image.NRGBA:
		Parallel(height, func(partStart, partEnd int) {
			for y := partStart; y < partEnd; y++ {
				srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				dstOff := y * dst.Stride
				for x := 0; x < width; x++ {
					p := src.Pix[srcOff+x*4 : srcOff+x*4+3 : srcOff+x*4+3]
					dst.Pix[dstOff+x] = Luma(p[0], p[1], p[2])
				}
			}
		})
	default:
		// Slow path through the color model. Still row-parallel.
		Parallel(height, func(partStart, partEnd int) {
			for y := partStart; y < partEnd; y++ {
				for x := 0; x < width; x++ {
					c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
					dst.Pix[y*dst.Stride+x] = Luma(c.R, c.G, c.B)
				}
			}
		})
	}

	return dst
}

// ToRGBA returns src as an *image.RGBA anchored at (0, 0). Images that already
// satisfy that are returned as is; everything else is copied.
func ToRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok && r.Rect.Min == (image.Point{}) {
		return r
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}

// GenerateGaussianKernel creates a 1D Gaussian kernel for separable filtering.
// The kernel is normalized to sum to 1.0.
//
// Arguments:
// - radius: The kernel radius (kernel size will be 2*radius + 1).
// - sigma: Standard deviation of the Gaussian.
//
// Returns:
// - A normalized 1D Gaussian kernel.
//
// @example
// kernel := GenerateGaussianKernel(5, 2.0)
func GenerateGaussianKernel(radius int, sigma float64) []float64 {
	size := 2*radius + 1
	kernel := make([]float64, size)

	// 2*sigma^2, the exponent denominator. The 1/(sqrt(2*pi)*sigma) factor is
	// dropped because the kernel is normalized afterwards anyway.
	denom := 2.0 * sigma * sigma

	sum := 0.0
	for i := 0; i < size; i++ {
		x := float64(i - radius)
		kernel[i] = math.Exp(-(x * x) / denom)
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}

// SigmaForKernelSize derives a Gaussian sigma from an odd kernel size the same
// way common vision toolkits do when no explicit sigma is given:
// 0.3*((ksize-1)*0.5 - 1) + 0.8.
func SigmaForKernelSize(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// Clamp restricts a value to the specified range [min, max].
// This is used to prevent overflow in color calculations.
//
// Arguments:
// - value: The value to Clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampInt is Clamp for integers. The kernels use it to replicate border
// pixels when a tap falls outside the image.
func ClampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Parallel executes a function in Parallel across multiple goroutines.
// This improves performance on multi-core systems.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	// For small data sizes the goroutine overhead isn't worth it.
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
