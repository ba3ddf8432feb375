package kernels

import (
	"image"
	"sync"
)

// Options configures the filters in this package.
type Options struct {
	Pool     *Pool // Optional buffer pool for intermediate/dst reuse.
	Parallel bool  // Enable row/column parallelism (good for 720p+).
}

// Pool lets callers reuse frame sized buffers to reduce GC pressure at video rates.
// A nil *Pool is valid and simply allocates.
type Pool struct {
	gray  sync.Pool // *image.Gray
	float sync.Pool // *[]float32
}

// GetGray returns a gray image with exactly the given bounds. Its contents are
// undefined; callers must overwrite every pixel.
func (p *Pool) GetGray(bounds image.Rectangle) *image.Gray {
	if p == nil {
		return image.NewGray(bounds)
	}
	if v := p.gray.Get(); v != nil {
		img := v.(*image.Gray)
		if img.Rect == bounds {
			return img
		}
	}
	return image.NewGray(bounds)
}

// PutGray hands img back to the pool. img must not be used afterwards.
func (p *Pool) PutGray(img *image.Gray) {
	if p == nil || img == nil {
		return
	}
	p.gray.Put(img)
}

func (p *Pool) getFloats(n int) []float32 {
	if p != nil {
		if v := p.float.Get(); v != nil {
			buf := *v.(*[]float32)
			if cap(buf) >= n {
				return buf[:n]
			}
		}
	}
	return make([]float32, n)
}

func (p *Pool) putFloats(buf []float32) {
	if p == nil || buf == nil {
		return
	}
	p.float.Put(&buf)
}

// forEach runs task(i) for i in [0, n). With parallel set, the range is split
// into chunks that run on their own goroutines.
func forEach(n int, parallel bool, task func(i int)) {
	if !parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	// Choose chunk size to avoid too many goroutines and preserve cache locality.
	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}

// row returns the visible pixels of row y (relative to Rect.Min) of img.
func row(img *image.Gray, y int) []uint8 {
	off := y * img.Stride
	return img.Pix[off : off+img.Rect.Dx() : off+img.Rect.Dx()]
}
