package boundary

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nvr-ai/go-silhouette/params"
)

func TestAccumulatorFirstFrameIsVerbatim(t *testing.T) {
	acc := NewAccumulator(zaptest.NewLogger(t).Sugar())
	assert.False(t, acc.Initialized())
	assert.Nil(t, acc.Mask())

	fill := grayFilled(16, 8, 0)
	fill.Pix[3], fill.Pix[40] = 255, 128
	assert.True(t, acc.Update(fill, 0.7, 0.3))
	assert.True(t, acc.Initialized())
	assert.Equal(t, fill.Pix, acc.Mask().Pix)
}

func TestAccumulatorDecaysUnderEmptyFill(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Update(grayFilled(10, 10, 255), 0.7, 0.3)
	empty := grayFilled(10, 10, 0)

	prevState := append([]float32(nil), acc.state...)
	prevView := acc.Mask()
	for frame := 0; frame < 40; frame++ {
		require.False(t, acc.Update(empty, 0.7, 0.3))
		view := acc.Mask()
		for i := range acc.state {
			if prevState[i] > 0 {
				require.Less(t, acc.state[i], prevState[i], "frame %d", frame)
			}
			require.InDelta(t, 0.7*float64(prevState[i]), float64(acc.state[i]), 1e-3)
			require.LessOrEqual(t, view.Pix[i], prevView.Pix[i])
		}
		prevState = append(prevState[:0], acc.state...)
		prevView = view
	}
	assert.Zero(t, countNonZero(prevView), "decays to zero")
}

func TestAccumulatorConvergesUnderFullFill(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Update(grayFilled(10, 10, 0), 0.7, 0.3)
	full := grayFilled(10, 10, 255)

	prev := float32(0)
	for frame := 0; frame < 60; frame++ {
		acc.Update(full, 0.7, 0.3)
		s := acc.state[0]
		require.LessOrEqual(t, s, float32(255))
		require.GreaterOrEqual(t, s, prev-1e-3)
		prev = s
	}
	assert.Equal(t, uint8(255), acc.Mask().Pix[0])
}

func TestAccumulatorStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	acc := NewAccumulator(nil)
	fill := grayFilled(32, 16, 0)

	for frame := 0; frame < 200; frame++ {
		for i := range fill.Pix {
			fill.Pix[i] = uint8(rng.Intn(256))
		}
		set := params.Defaults()
		set.FadeOutRate = rng.Float64()*1.4 - 0.2
		set.NewMaskContribution = rng.Float64()*1.4 - 0.2
		fade, contribution := set.BlendWeights()
		acc.Update(fill, fade, contribution)
		for _, s := range acc.state {
			require.GreaterOrEqual(t, s, float32(0))
			require.LessOrEqual(t, s, float32(255))
		}
	}
}

func TestAccumulatorReinitializesOnSizeChange(t *testing.T) {
	acc := NewAccumulator(zaptest.NewLogger(t).Sugar())
	acc.Update(grayFilled(20, 10, 255), 0.7, 0.3)
	acc.Update(grayFilled(20, 10, 0), 0.7, 0.3)

	next := grayFilled(12, 30, 0)
	next.Pix[5] = 255
	assert.True(t, acc.Update(next, 0.7, 0.3))
	mask := acc.Mask()
	assert.Equal(t, image.Rect(0, 0, 12, 30), mask.Rect)
	assert.Equal(t, next.Pix, mask.Pix)
}

func TestAccumulatorHandlesSubImageFill(t *testing.T) {
	big := grayFilled(20, 20, 0)
	big.SetGray(6, 6, color.Gray{Y: 255})
	sub := big.SubImage(image.Rect(5, 5, 15, 15)).(*image.Gray)

	acc := NewAccumulator(nil)
	acc.Update(sub, 0.7, 0.3)
	mask := acc.Mask()
	require.Equal(t, image.Rect(0, 0, 10, 10), mask.Rect)
	assert.Equal(t, uint8(255), mask.GrayAt(1, 1).Y)
	assert.Equal(t, 1, countNonZero(mask))

	acc.Update(sub, 0.5, 0.5)
	assert.Equal(t, uint8(255), acc.Mask().GrayAt(1, 1).Y)
}

func TestAccumulatorReset(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Update(grayFilled(4, 4, 255), 0.7, 0.3)
	acc.Reset()
	assert.False(t, acc.Initialized())

	fill := grayFilled(4, 4, 9)
	assert.True(t, acc.Update(fill, 0.7, 0.3))
	assert.Equal(t, fill.Pix, acc.Mask().Pix)
}
