package boundary

import (
	"context"
	"image"
	"iter"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-silhouette/contour"
	"github.com/nvr-ai/go-silhouette/images/kernels"
	"github.com/nvr-ai/go-silhouette/params"
	"github.com/nvr-ai/go-silhouette/profiler"
)

// ErrStop can be returned by a Sink to end Run without an error.
var ErrStop = errors.New("pipeline stopped by sink")

// Options configures a Pipeline.
type Options struct {
	// Style of the composited overlay. The zero value selects DefaultStyle.
	Style Style
	// Parallel enables row parallelism inside the image kernels.
	Parallel bool
	// Logger defaults to a no-op logger.
	Logger *zap.SugaredLogger
	// Profiler receives stage timings when set.
	Profiler *profiler.RuntimeProfiler
}

// FrameStats describes what happened to one frame.
type FrameStats struct {
	Index         uint64       `json:"index"`
	Contours      int          `json:"contours"`
	Boxes         int          `json:"boxes"`
	Closure       ClosureStats `json:"closure"`
	Reinitialized bool         `json:"reinitialized"`
}

// Result carries every intermediate product of one frame. All images are
// owned by the caller.
type Result struct {
	// Output is the composited overlay frame.
	Output *image.RGBA
	// Mask is the segmenter's binary mask.
	Mask *image.Gray
	// Fill is the per-frame fill mask of closed contours.
	Fill *image.Gray
	// Accumulated is the accumulated mask after this frame.
	Accumulated *image.Gray
	// Smoothed is the stabilized mask that drives Output.
	Smoothed *image.Gray
	// Raw and Simplified are the extracted outer contours.
	Raw        []contour.Contour
	Simplified []contour.Contour
	Stats      FrameStats
}

// ParamSource provides the parameter snapshot for each frame.
type ParamSource interface {
	Snapshot() params.Set
}

// Sink consumes finished frames. frame is the input the result was computed from.
type Sink interface {
	Consume(frame image.Image, res *Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame image.Image, res *Result) error

// Consume calls f.
func (f SinkFunc) Consume(frame image.Image, res *Result) error { return f(frame, res) }

// Sinks hands each result to several sinks in order. The first error,
// ErrStop included, is returned and the remaining sinks are skipped.
type Sinks []Sink

// Consume calls every sink.
func (s Sinks) Consume(frame image.Image, res *Result) error {
	for _, sink := range s {
		if err := sink.Consume(frame, res); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline runs the boundary stages over a stream of frames. It owns the
// accumulated mask, so frames must be processed one at a time and in order;
// Process serializes concurrent callers.
type Pipeline struct {
	mu          sync.Mutex
	segmenter   *Segmenter
	accumulator *Accumulator
	kernelOpt   kernels.Options
	style       Style
	logger      *zap.SugaredLogger
	prof        *profiler.RuntimeProfiler
	frames      uint64
}

// New creates a pipeline with an empty history.
//
// @example
// p := boundary.New(boundary.Options{Logger: logger, Parallel: true})
// res := p.Process(frame, params.Defaults())
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Style == (Style{}) {
		opts.Style = DefaultStyle()
	}
	pool := &kernels.Pool{}
	return &Pipeline{
		segmenter:   NewSegmenter(pool, opts.Parallel),
		accumulator: NewAccumulator(opts.Logger),
		kernelOpt:   kernels.Options{Pool: pool, Parallel: opts.Parallel},
		style:       opts.Style,
		logger:      opts.Logger,
		prof:        opts.Profiler,
	}
}

// Process runs one frame through every stage.
//
// Arguments:
//   - frame: The input frame. It is not modified.
//   - set: The parameter snapshot for this frame; it is clamped before use.
//
// Returns:
//   - The composited output together with the intermediate masks and contours.
func (p *Pipeline) Process(frame image.Image, set params.Set) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	set = set.Clamp()
	frameDone := p.prof.StartOperation("frame")
	defer frameDone()

	done := p.prof.StartOperation("segment")
	mask := p.segmenter.Segment(frame, set)
	done()

	done = p.prof.StartOperation("extract")
	ex := Extract(mask, set.EpsilonFactor)
	done()

	done = p.prof.StartOperation("closure")
	fill, closure := FillClosed(mask.Rect, ex.Simplified)
	done()

	done = p.prof.StartOperation("accumulate")
	fade, contribution := set.BlendWeights()
	reinit := p.accumulator.Update(fill, fade, contribution)
	accumulated := p.accumulator.Mask()
	done()

	done = p.prof.StartOperation("stabilize")
	smoothed := Stabilize(accumulated, p.kernelOpt)
	done()

	done = p.prof.StartOperation("composite")
	output, boxes := Composite(smoothed, ex.Raw, p.style)
	done()

	p.frames++
	stats := FrameStats{
		Index:         p.frames,
		Contours:      len(ex.Raw),
		Boxes:         boxes,
		Closure:       closure,
		Reinitialized: reinit,
	}
	p.prof.RecordMetric("contours", float64(stats.Contours))
	p.prof.RecordMetric("closed", float64(closure.Closed))
	p.prof.FrameDone()
	p.logger.Debugw("frame processed",
		"index", stats.Index,
		"contours", stats.Contours,
		"closed", closure.Closed,
		"boxes", boxes,
		"reinitialized", reinit,
	)

	return &Result{
		Output:      output,
		Mask:        mask,
		Fill:        fill,
		Accumulated: accumulated,
		Smoothed:    smoothed,
		Raw:         ex.Raw,
		Simplified:  ex.Simplified,
		Stats:       stats,
	}
}

// Run folds frames through Process, reading a fresh parameter snapshot for
// every frame and handing each result to sink.
//
// Run returns nil when frames is exhausted, when ctx is cancelled or when
// sink returns ErrStop. A frame error or any other sink error ends the run
// and is returned.
func (p *Pipeline) Run(ctx context.Context, frames iter.Seq2[image.Image, error], ps ParamSource, sink Sink) error {
	for frame, err := range frames {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		res := p.Process(frame, ps.Snapshot())
		if err := sink.Consume(frame, res); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return errors.Wrap(err, "sink")
		}
	}
	return nil
}

// Reset drops the accumulated history.
func (p *Pipeline) Reset() {
	p.accumulator.Reset()
}

// Frames returns the number of frames processed so far.
func (p *Pipeline) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
