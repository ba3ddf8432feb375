// Package source - Frame sources feeding the boundary pipeline: cameras and
// video files through gocv, directories of still images and a synthetic
// generator, all behind one pull-based interface.
package source

import (
	"context"
	"image"
	"iter"

	"github.com/pkg/errors"
)

var (
	// ErrEndOfStream is returned by Read when a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrAcquisition is returned when a device cannot deliver a frame. It is
	// fatal to the stream and never retried.
	ErrAcquisition = errors.New("frame acquisition failed")
	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("source closed")
)

// FrameSource produces frames one at a time. Read blocks until a frame is
// available. Implementations acquire their device when opened and release it
// exactly once on Close.
type FrameSource interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Frames returns a lazy sequence over src. The sequence ends without an
// error at ErrEndOfStream or when ctx is done; any other read error is
// yielded once and ends the sequence.
//
// @example
//
//	for frame, err := range source.Frames(ctx, cam) {
//	    if err != nil {
//	        return err
//	    }
//	    process(frame)
//	}
func Frames(ctx context.Context, src FrameSource) iter.Seq2[image.Image, error] {
	return func(yield func(image.Image, error) bool) {
		for ctx.Err() == nil {
			img, err := src.Read(ctx)
			switch {
			case errors.Is(err, ErrEndOfStream):
				return
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				yield(nil, err)
				return
			}
			if !yield(img, nil) {
				return
			}
		}
	}
}
