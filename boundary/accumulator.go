package boundary

import (
	"image"
	"sync"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// Accumulator blends per-frame fill masks into a persistent mask.
//
// The state is kept in float32 so a mask that stops being refreshed keeps
// decaying every frame instead of getting stuck on a rounded value. Mask
// exposes the state rounded to 8 bits.
//
// The first update, and any update whose fill mask has different dimensions
// from the state, copies the fill mask verbatim instead of blending.
type Accumulator struct {
	mu          sync.RWMutex
	logger      *zap.SugaredLogger
	state       []float32
	view        *image.Gray
	initialized bool
}

// NewAccumulator creates an uninitialized accumulator. logger may be nil.
func NewAccumulator(logger *zap.SugaredLogger) *Accumulator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Accumulator{logger: logger}
}

// Update blends fill into the accumulated mask:
//
//	acc = clamp(fade*acc + contribution*fill, 0, 255)
//
// fade and contribution are expected to be normalized already (see
// params.Set.BlendWeights).
//
// Arguments:
//   - fill: This frame's fill mask.
//   - fade: Weight of the accumulated history.
//   - contribution: Weight of fill.
//
// Returns:
//   - reinitialized: true when the state was (re)set from fill instead of blended.
func (a *Accumulator) Update(fill *image.Gray, fade, contribution float64) (reinitialized bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, h := fill.Rect.Dx(), fill.Rect.Dy()
	if !a.initialized || a.view.Rect.Dx() != w || a.view.Rect.Dy() != h {
		if a.initialized {
			a.logger.Infow("frame size changed, reinitializing accumulated mask",
				"from", a.view.Rect.Size().String(), "to", fill.Rect.Size().String())
		}
		a.reset(fill)
		return true
	}

	f, n := float32(fade), float32(contribution)
	for y := 0; y < h; y++ {
		in := fill.Pix[y*fill.Stride : y*fill.Stride+w]
		state := a.state[y*w : (y+1)*w]
		out := a.view.Pix[y*w : (y+1)*w]
		for x, v := range in {
			s := f*state[x] + n*float32(v)
			s = math32.Max(0, math32.Min(255, s))
			state[x] = s
			out[x] = uint8(math32.Floor(s + 0.5))
		}
	}
	return false
}

// reset copies fill into the state verbatim.
func (a *Accumulator) reset(fill *image.Gray) {
	w, h := fill.Rect.Dx(), fill.Rect.Dy()
	if cap(a.state) >= w*h {
		a.state = a.state[:w*h]
	} else {
		a.state = make([]float32, w*h)
	}
	a.view = image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := fill.Pix[y*fill.Stride : y*fill.Stride+w]
		copy(a.view.Pix[y*w:(y+1)*w], row)
		for x, v := range row {
			a.state[y*w+x] = float32(v)
		}
	}
	a.initialized = true
}

// Mask returns a copy of the accumulated mask rounded to 8 bits, or nil
// before the first update.
func (a *Accumulator) Mask() *image.Gray {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return nil
	}
	out := image.NewGray(a.view.Rect)
	copy(out.Pix, a.view.Pix)
	return out
}

// Initialized reports whether a fill mask has been seen since creation or
// the last Reset.
func (a *Accumulator) Initialized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initialized
}

// Reset drops the history. The next Update initializes from its fill mask.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = false
	a.view = nil
}
