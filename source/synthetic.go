package source

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// SyntheticOptions configures the generator.
type SyntheticOptions struct {
	// Width and Height of the frames (default 640x480).
	Width, Height int
	// Size is the side of the square (default a quarter of the smaller side).
	Size int
	// Step is how far the square moves per frame in pixels. Zero keeps it still.
	Step int
	// Frames ends the stream after this many frames. Zero is unbounded.
	Frames int
}

// Synthetic generates deterministic frames with one solid white square on a
// black background. The square moves diagonally by Step pixels per frame and
// bounces off the frame edges.
type Synthetic struct {
	mu     sync.Mutex
	opts   SyntheticOptions
	count  int
	pos    image.Point
	dir    image.Point
	closed bool
}

// NewSynthetic creates a generator.
//
// @example
// gen := NewSynthetic(SyntheticOptions{Width: 100, Height: 100, Size: 50, Frames: 3})
func NewSynthetic(opts SyntheticOptions) *Synthetic {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 480
	}
	if opts.Size <= 0 {
		opts.Size = min(opts.Width, opts.Height) / 4
	}
	opts.Size = min(opts.Size, opts.Width, opts.Height)
	return &Synthetic{
		opts: opts,
		pos:  image.Pt((opts.Width-opts.Size)/2, (opts.Height-opts.Size)/2),
		dir:  image.Pt(1, 1),
	}
}

// Square returns where the square will be drawn on the next frame.
func (s *Synthetic) Square() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return image.Rectangle{Min: s.pos, Max: s.pos.Add(image.Pt(s.opts.Size, s.opts.Size))}
}

// Read renders the next frame.
func (s *Synthetic) Read(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opts.Frames > 0 && s.count >= s.opts.Frames {
		return nil, ErrEndOfStream
	}
	s.count++

	frame := image.NewRGBA(image.Rect(0, 0, s.opts.Width, s.opts.Height))
	draw.Draw(frame, frame.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	square := image.Rectangle{Min: s.pos, Max: s.pos.Add(image.Pt(s.opts.Size, s.opts.Size))}
	draw.Draw(frame, square, image.NewUniform(color.White), image.Point{}, draw.Src)

	s.advance()
	return frame, nil
}

func (s *Synthetic) advance() {
	if s.opts.Step == 0 {
		return
	}
	maxX, maxY := s.opts.Width-s.opts.Size, s.opts.Height-s.opts.Size
	next := s.pos.Add(s.dir.Mul(s.opts.Step))
	if next.X < 0 || next.X > maxX {
		s.dir.X = -s.dir.X
	}
	if next.Y < 0 || next.Y > maxY {
		s.dir.Y = -s.dir.Y
	}
	s.pos = s.pos.Add(s.dir.Mul(s.opts.Step))
	s.pos.X = min(max(s.pos.X, 0), maxX)
	s.pos.Y = min(max(s.pos.Y, 0), maxY)
}

// Close stops the generator.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
