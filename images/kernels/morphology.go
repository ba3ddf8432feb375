package kernels

import "image"

// Dilate replaces each pixel with the maximum over a ksize x ksize square
// window. The window covers offsets [-ksize/2, ksize-1-ksize/2] on each axis
// and samples outside the image are ignored.
//
// The square element is separable, so the filter runs as a horizontal then a
// vertical running maximum. ksize < 2 returns a copy.
func Dilate(src *image.Gray, ksize int, opt Options) *image.Gray {
	return morph(src, ksize, opt, func(a, b uint8) uint8 { return max(a, b) })
}

// Erode is Dilate with the minimum instead of the maximum.
func Erode(src *image.Gray, ksize int, opt Options) *image.Gray {
	return morph(src, ksize, opt, func(a, b uint8) uint8 { return min(a, b) })
}

// Open erodes and then dilates src, removing foreground specks smaller than
// the structuring element while keeping larger shapes in place.
//
// @example
// clean := Open(mask, 5, Options{})
func Open(src *image.Gray, ksize int, opt Options) *image.Gray {
	eroded := Erode(src, ksize, opt)
	defer opt.Pool.PutGray(eroded)
	return Dilate(eroded, ksize, opt)
}

func morph(src *image.Gray, ksize int, opt Options, pick func(a, b uint8) uint8) *image.Gray {
	b := src.Rect
	w, h := b.Dx(), b.Dy()
	dst := opt.Pool.GetGray(b)
	if ksize < 2 || w == 0 || h == 0 {
		for y := 0; y < h; y++ {
			copy(row(dst, y), row(src, y))
		}
		return dst
	}

	lo := -(ksize / 2)
	hi := ksize - 1 - ksize/2

	tmp := opt.Pool.GetGray(b)
	defer opt.Pool.PutGray(tmp)

	forEach(h, opt.Parallel, func(y int) {
		in, out := row(src, y), row(tmp, y)
		for x := 0; x < w; x++ {
			x0, x1 := max(x+lo, 0), min(x+hi, w-1)
			v := in[x0]
			for i := x0 + 1; i <= x1; i++ {
				v = pick(v, in[i])
			}
			out[x] = v
		}
	})

	forEach(w, opt.Parallel, func(x int) {
		for y := 0; y < h; y++ {
			y0, y1 := max(y+lo, 0), min(y+hi, h-1)
			v := tmp.Pix[y0*tmp.Stride+x]
			for i := y0 + 1; i <= y1; i++ {
				v = pick(v, tmp.Pix[i*tmp.Stride+x])
			}
			dst.Pix[y*dst.Stride+x] = v
		}
	})

	return dst
}
