package source

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-silhouette/images"
)

// maxEmptyReads bounds how many empty frames in a row a device may deliver
// before it is treated as failed.
const maxEmptyReads = 100

// Capture reads frames from a gocv VideoCapture, either a camera or a video
// file.
type Capture struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	name    string
	file    bool
	closed  bool
}

// OpenCamera opens capture device id. resolution optionally requests a
// capture size ("720p", "640x480"); the device may ignore it.
//
// Arguments:
//   - id: The device index, usually 0.
//   - resolution: The requested capture size, or "" for the device default.
//
// Returns:
//   - *Capture: The opened camera. Close releases the device.
//   - error: ErrAcquisition when the device cannot be opened.
func OpenCamera(id int, resolution string) (*Capture, error) {
	var res images.Resolution
	if resolution != "" {
		var err error
		if res, err = images.ParseResolution(resolution); err != nil {
			return nil, err
		}
	}

	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(ErrAcquisition, "open camera %d: %v", id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Wrapf(ErrAcquisition, "camera %d is not available", id)
	}
	if res.Pixels.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(res.Pixels.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(res.Pixels.Height))
	}

	return &Capture{capture: vc, mat: gocv.NewMat(), name: "camera"}, nil
}

// OpenVideo opens a video file. Reading past its last frame returns
// ErrEndOfStream.
func OpenVideo(path string) (*Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrAcquisition, "open video %s: %v", path, err)
	}
	return &Capture{capture: vc, mat: gocv.NewMat(), name: path, file: true}, nil
}

// Size reports the capture size the device actually delivers.
func (c *Capture) Size() images.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return images.Resolution{}
	}
	return images.IdentifyResolution(
		int(c.capture.Get(gocv.VideoCaptureFrameWidth)),
		int(c.capture.Get(gocv.VideoCaptureFrameHeight)),
	)
}

// Read returns the next frame as an *image.RGBA. Empty frames are skipped.
// A failed read ends a video file with ErrEndOfStream and fails a camera
// with ErrAcquisition.
func (c *Capture) Read(ctx context.Context) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	for empty := 0; empty < maxEmptyReads; empty++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := c.capture.Read(&c.mat); !ok {
			if c.file {
				return nil, ErrEndOfStream
			}
			return nil, errors.Wrapf(ErrAcquisition, "cannot read %s", c.name)
		}
		if c.mat.Empty() {
			continue
		}
		img, err := c.mat.ToImage()
		if err != nil {
			return nil, errors.Wrap(err, "convert frame")
		}
		return img, nil
	}
	if c.file {
		return nil, ErrEndOfStream
	}
	return nil, errors.Wrapf(ErrAcquisition, "%s delivered only empty frames", c.name)
}

// Close releases the device. Only the first call has an effect.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	matErr := c.mat.Close()
	capErr := c.capture.Close()
	return closeErrors(c.name, capErr, matErr)
}

// closeErrors reports both release failures of a capture.
func closeErrors(name string, capErr, matErr error) error {
	return multierr.Combine(
		errors.Wrapf(capErr, "close %s", name),
		errors.Wrap(matErr, "release frame buffer"),
	)
}
