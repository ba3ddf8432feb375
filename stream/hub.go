// Package stream - Fan-out of encoded frames to any number of viewers and the
// MJPEG HTTP handler that serves them.
package stream

import (
	"image"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-silhouette/images"
)

// ErrHubClosed is returned by Publish after Close.
var ErrHubClosed = errors.New("hub closed")

// Frame is one encoded image ready to be sent.
type Frame struct {
	images.Image
	// Seq increases by one for every published frame.
	Seq uint64
	// Checksum identifies the pixels the frame was encoded from.
	Checksum string
}

// HubOptions configures a Hub.
type HubOptions struct {
	// Format of the encoded frames (default JPEG).
	Format images.ImageFormat
	// Quality is the JPEG quality (default images.DefaultJPEGQuality).
	Quality int
	// MaxWidth downscales wider frames, keeping the aspect ratio. Zero keeps
	// the original size.
	MaxWidth int
	// Logger defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// Hub encodes published frames once and hands the latest one to every
// subscriber. Subscribers that fall behind skip frames rather than slowing
// the publisher down.
type Hub struct {
	opts HubOptions

	mu     sync.RWMutex
	latest *Frame
	subs   map[int]chan *Frame
	nextID int
	seq    uint64
	closed bool
}

// NewHub creates an empty hub.
//
// @example
// hub := stream.NewHub(stream.HubOptions{Quality: 80, MaxWidth: 960})
// defer hub.Close()
func NewHub(opts HubOptions) *Hub {
	if opts.Format == "" {
		opts.Format = images.FormatJPEG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = images.DefaultJPEGQuality
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Hub{opts: opts, subs: make(map[int]chan *Frame)}
}

// Publish encodes img and delivers it to all subscribers. When img has the
// same pixels as the previous frame the previous encoding is reused.
//
// Arguments:
//   - img: The frame to publish. It is not retained.
//
// Returns:
//   - error: ErrHubClosed after Close, or an encoding error.
func (h *Hub) Publish(img image.Image) error {
	if h.opts.MaxWidth > 0 && img.Bounds().Dx() > h.opts.MaxWidth {
		img = resize.Resize(uint(h.opts.MaxWidth), 0, img, resize.Bilinear)
	}
	sum := images.ComputeChecksum(img)

	h.mu.RLock()
	closed, prev := h.closed, h.latest
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}

	var encoded images.Image
	if prev != nil && prev.Checksum == sum {
		encoded = prev.Image
	} else {
		enc, err := images.Encode(img, h.opts.Format, h.opts.Quality)
		if err != nil {
			return errors.Wrap(err, "encode stream frame")
		}
		encoded = *enc
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.seq++
	frame := &Frame{Image: encoded, Seq: h.seq, Checksum: sum}
	h.latest = frame
	for _, ch := range h.subs {
		// Replace a frame the subscriber has not picked up yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
	return nil
}

// Subscribe registers a viewer. The channel immediately holds the latest
// frame, if any, and is closed when the hub closes or cancel is called.
func (h *Hub) Subscribe() (<-chan *Frame, func()) {
	ch := make(chan *Frame, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	if h.latest != nil {
		ch <- h.latest
	}
	clients := len(h.subs)
	h.mu.Unlock()
	h.opts.Logger.Debugw("stream client joined", "clients", clients)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
}

// Latest returns the most recent frame, or nil before the first Publish.
func (h *Hub) Latest() *Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Clients returns the number of current subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later publishes fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
