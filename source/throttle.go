package source

import (
	"context"
	"image"
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

type throttled struct {
	FrameSource
	clock    clock.Clock
	interval time.Duration
	next     time.Time
}

// Throttle limits src to at most fps frames per second. Sources that are
// slower than the limit are not delayed. An fps that is not a positive finite
// number means no limit and src is returned as is.
func Throttle(src FrameSource, fps float64, c clock.Clock) FrameSource {
	if !(fps > 0) || math.IsInf(fps, 1) {
		return src
	}
	return &throttled{
		FrameSource: src,
		clock:       c,
		interval:    time.Duration(float64(time.Second) / fps),
	}
}

func (t *throttled) Read(ctx context.Context) (image.Image, error) {
	now := t.clock.Now()
	if wait := t.next.Sub(now); wait > 0 {
		timer := t.clock.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		now = t.next
	}
	t.next = now.Add(t.interval)
	return t.FrameSource.Read(ctx)
}
