// Package display - Local gocv windows for a running pipeline: the input
// feed, the overlay, an optional contour debug view and the "Settings"
// trackbar window that edits the live parameters.
//
// HighGUI requires every window call to come from the same OS thread, on
// some platforms the main one. Create a Display and call Consume and Close
// from a single goroutine locked with runtime.LockOSThread.
package display

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-silhouette/boundary"
	"github.com/nvr-ai/go-silhouette/params"
)

// Window titles.
const (
	OriginalWindow = "Original Video Feed"
	OverlayWindow  = "Segmented Object with Red Filled Contours and Bounding Boxes"
	ContoursWindow = "Raw Contours"
	SettingsWindow = "Settings"
)

// QuitKey stops the run when pressed in any window.
const QuitKey = 'q'

// Options configures a Display.
type Options struct {
	// Store backs the Settings window. Nil disables it.
	Store *params.Store
	// Contours opens the raw contour debug window.
	Contours bool
	// Accent colours the debug contours.
	Accent color.RGBA
	Logger *zap.SugaredLogger
}

// Display shows pipeline results. It implements boundary.Sink.
type Display struct {
	original *gocv.Window
	overlay  *gocv.Window
	contours *gocv.Window
	settings *gocv.Window
	sliders  []*slider

	store  *params.Store
	tunables *follower
	accent color.RGBA
	logger *zap.SugaredLogger
}

// New opens the windows.
//
// @example
//
//	d := display.New(display.Options{Store: store})
//	defer d.Close()
//	err := pipeline.Run(ctx, frames, store, d)
func New(opts Options) *Display {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Accent == (color.RGBA{}) {
		opts.Accent = boundary.DefaultStyle().Accent
	}
	d := &Display{
		original: gocv.NewWindow(OriginalWindow),
		overlay:  gocv.NewWindow(OverlayWindow),
		store:    opts.Store,
		accent:   opts.Accent,
		logger:   opts.Logger,
	}
	if opts.Contours {
		d.contours = gocv.NewWindow(ContoursWindow)
	}
	if opts.Store != nil {
		d.settings = gocv.NewWindow(SettingsWindow)
		d.tunables = follow(opts.Store)
		current := d.tunables.current
		for _, sp := range params.Specs {
			bar := d.settings.CreateTrackbar(sp.Label, sp.MaxPosition())
			pos := sp.Position(sp.Get(current))
			bar.SetPos(pos)
			d.sliders = append(d.sliders, &slider{spec: sp, bar: bar, last: pos})
		}
	}
	return d
}

// Consume shows the input frame, the overlay and the debug view, applies
// slider changes to the store and returns boundary.ErrStop when QuitKey is
// pressed.
func (d *Display) Consume(frame image.Image, res *boundary.Result) error {
	if err := show(d.original, frame); err != nil {
		return err
	}
	if err := show(d.overlay, res.Output); err != nil {
		return err
	}
	if d.contours != nil {
		debug := boundary.DrawContours(frame, res.Raw, d.accent, 2)
		if err := show(d.contours, debug); err != nil {
			return err
		}
	}
	d.syncSliders()

	if key := d.original.WaitKey(1); key >= 0 && key&0xFF == QuitKey {
		d.logger.Infow("quit key pressed")
		return boundary.ErrStop
	}
	return nil
}

// Close ends the store subscription and closes every window.
func (d *Display) Close() error {
	if d.tunables != nil {
		d.tunables.cancel()
	}
	var err error
	for _, w := range []*gocv.Window{d.settings, d.contours, d.overlay, d.original} {
		if w != nil {
			err = multierr.Append(err, w.Close())
		}
	}
	return err
}

func show(w *gocv.Window, img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return errors.Wrap(err, "convert frame for display")
	}
	defer mat.Close()
	w.IMShow(mat)
	return nil
}

// syncSliders pushes slider moves into the store and moves sliders whose
// tunable was changed elsewhere.
func (d *Display) syncSliders() {
	if d.store == nil {
		return
	}
	current := d.tunables.latest()
	for _, s := range d.sliders {
		pos := s.bar.GetPos()
		want := s.spec.Position(s.spec.Get(current))
		next, moved := reconcile(pos, s.last, want)
		if moved {
			set, err := d.store.SetNamed(s.spec.Name, s.spec.FromPosition(pos))
			if err != nil {
				d.logger.Warnw("slider update rejected", "param", s.spec.Name, "error", err)
				continue
			}
			current = set
			d.tunables.current = set
			d.logger.Debugw("parameter changed", "source", "slider", "param", s.spec.Name, "value", s.spec.Get(set))
		} else if next != pos {
			s.bar.SetPos(next)
		}
		s.last = next
	}
}
