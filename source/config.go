package source

import (
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-silhouette/images"
)

// Kind names a source implementation.
type Kind string

const (
	// KindCamera reads a capture device by index.
	KindCamera Kind = "camera"
	// KindVideo reads a video file.
	KindVideo Kind = "video"
	// KindDirectory reads still images from a directory.
	KindDirectory Kind = "directory"
	// KindDemo generates moving squares.
	KindDemo Kind = "demo"
)

// Config selects and configures a frame source.
type Config struct {
	// Kind is camera, video, directory or demo.
	Kind Kind `yaml:"kind"`
	// Device is the camera index for camera sources.
	Device int `yaml:"device"`
	// Path is the video file or directory.
	Path string `yaml:"path"`
	// Resolution requests a capture size by name ("720p") or as "WxH". Demo
	// sources use it as their frame size.
	Resolution string `yaml:"resolution"`
	// FPS limits how fast frames are delivered. Zero means as fast as the
	// source produces them.
	FPS float64 `yaml:"fps"`
	// Loop restarts directory sources at the end.
	Loop bool `yaml:"loop"`
	// Frames bounds the number of demo frames. Zero is unbounded.
	Frames int `yaml:"frames"`
}

// ParseDevice interprets a command line input: a bare integer selects a
// camera, an existing directory a directory source, "demo" the generator and
// anything else a video file.
func ParseDevice(input string, isDir func(string) bool) Config {
	input = strings.TrimSpace(input)
	if id, err := strconv.Atoi(input); err == nil {
		return Config{Kind: KindCamera, Device: id}
	}
	if strings.EqualFold(input, string(KindDemo)) {
		return Config{Kind: KindDemo}
	}
	if isDir != nil && isDir(input) {
		return Config{Kind: KindDirectory, Path: input}
	}
	return Config{Kind: KindVideo, Path: input}
}

// Open creates the source described by cfg, throttled to cfg.FPS when set.
func Open(cfg Config) (FrameSource, error) {
	var (
		src FrameSource
		err error
	)
	switch cfg.Kind {
	case KindCamera, "":
		src, err = OpenCamera(cfg.Device, cfg.Resolution)
	case KindVideo:
		src, err = OpenVideo(cfg.Path)
	case KindDirectory:
		src, err = NewDirectory(cfg.Path, cfg.Loop)
	case KindDemo:
		res := images.IdentifyResolution(640, 480)
		if cfg.Resolution != "" {
			if res, err = images.ParseResolution(cfg.Resolution); err != nil {
				return nil, err
			}
		}
		src = NewSynthetic(SyntheticOptions{
			Width:  res.Pixels.Width,
			Height: res.Pixels.Height,
			Step:   4,
			Frames: cfg.Frames,
		})
	default:
		return nil, errors.Errorf("unknown source kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	if cfg.FPS > 0 {
		src = Throttle(src, cfg.FPS, clock.New())
	}
	return src, nil
}
