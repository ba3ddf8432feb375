// Package config - The YAML configuration file of the silhouette command.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-silhouette/boundary"
	"github.com/nvr-ai/go-silhouette/images"
	"github.com/nvr-ai/go-silhouette/logging"
	"github.com/nvr-ai/go-silhouette/params"
	"github.com/nvr-ai/go-silhouette/source"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the full silhouette configuration.
type Config struct {
	Source source.Config `yaml:"source"`
	// Params are the initial tunables. Out-of-range values are clamped.
	Params params.Set `yaml:"params"`
	// ParamsFile, when set, is loaded over Params and watched for changes.
	ParamsFile string         `yaml:"params_file"`
	Overlay    OverlayConfig  `yaml:"overlay"`
	Stream     StreamConfig   `yaml:"stream"`
	Server     ServerConfig   `yaml:"server"`
	Display    DisplayConfig  `yaml:"display"`
	Profiler   ProfilerConfig `yaml:"profiler"`
	Log        LogConfig      `yaml:"log"`
}

// OverlayConfig sets the overlay colours.
type OverlayConfig struct {
	// Background is the hex colour of the filled regions.
	Background string `yaml:"background"`
	// Accent is the hex colour of the bounding boxes.
	Accent      string  `yaml:"accent"`
	StrokeWidth float64 `yaml:"stroke_width"`
	// SoftEdges shades region borders by the mask intensity.
	SoftEdges bool `yaml:"soft_edges"`
}

// StreamConfig configures the MJPEG encoder.
type StreamConfig struct {
	Quality int `yaml:"quality"`
	// MaxWidth downscales wider frames before encoding. Zero disables it.
	MaxWidth int `yaml:"max_width"`
	// Raw also publishes the unprocessed input frames.
	Raw bool `yaml:"raw"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DisplayConfig configures the local windows.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
	// Settings opens the trackbar window.
	Settings bool `yaml:"settings"`
	// Contours opens the raw contour debug window.
	Contours bool `yaml:"contours"`
}

// ProfilerConfig configures the runtime profiler.
type ProfilerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ReportInterval time.Duration `yaml:"report_interval"`
	FPSWindow      time.Duration `yaml:"fps_window"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given: camera 0,
// default parameters, red regions with green boxes, HTTP stream on port 5000.
func Default() *Config {
	style := boundary.DefaultStyle()
	return &Config{
		Source: source.Config{Kind: source.KindCamera},
		Params: params.Defaults(),
		Overlay: OverlayConfig{
			Background:  hexColor(style.Background.R, style.Background.G, style.Background.B),
			Accent:      hexColor(style.Accent.R, style.Accent.G, style.Accent.B),
			StrokeWidth: style.StrokeWidth,
		},
		Stream: StreamConfig{Quality: images.DefaultJPEGQuality},
		Server: ServerConfig{Enabled: true, Addr: ":5000"},
		Display: DisplayConfig{
			Settings: true,
		},
		Profiler: ProfilerConfig{
			ReportInterval: 10 * time.Second,
			FPSWindow:      2 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads path over Default, fills blanks and validates the result. An
// empty path returns the validated defaults.
//
// Arguments:
//   - path: The YAML file. Unknown keys are rejected.
//
// Returns:
//   - *Config: The effective configuration.
//   - error: A read, decode or validation error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := cfg.decode(data); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document over Default without reading a file.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(c)
}

// applyDefaults fills zero values the file may have blanked and clamps the
// tunables.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Source.Kind == "" {
		c.Source.Kind = def.Source.Kind
	}
	if c.Overlay.Background == "" {
		c.Overlay.Background = def.Overlay.Background
	}
	if c.Overlay.Accent == "" {
		c.Overlay.Accent = def.Overlay.Accent
	}
	if c.Overlay.StrokeWidth == 0 {
		c.Overlay.StrokeWidth = def.Overlay.StrokeWidth
	}
	if c.Stream.Quality == 0 {
		c.Stream.Quality = def.Stream.Quality
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Profiler.ReportInterval == 0 {
		c.Profiler.ReportInterval = def.Profiler.ReportInterval
	}
	if c.Profiler.FPSWindow == 0 {
		c.Profiler.FPSWindow = def.Profiler.FPSWindow
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	c.Params = c.Params.Clamp()
}

// Validate reports every impossible value at once. Tunables are not checked
// here; they are clamped instead.
func (c *Config) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, errors.Wrapf(ErrInvalidConfig, format, args...))
	}

	switch c.Source.Kind {
	case source.KindCamera:
		if c.Source.Device < 0 {
			fail("source.device must be >= 0, got %d", c.Source.Device)
		}
	case source.KindVideo, source.KindDirectory:
		if c.Source.Path == "" {
			fail("source.path is required for %s sources", c.Source.Kind)
		}
	case source.KindDemo:
	default:
		fail("unknown source.kind %q", c.Source.Kind)
	}
	if c.Source.FPS < 0 {
		fail("source.fps must be >= 0, got %g", c.Source.FPS)
	}
	if c.Source.Frames < 0 {
		fail("source.frames must be >= 0, got %d", c.Source.Frames)
	}
	if c.Source.Resolution != "" {
		if _, err := images.ParseResolution(c.Source.Resolution); err != nil {
			fail("source.resolution: %v", err)
		}
	}

	if _, err := c.Overlay.Style(); err != nil {
		fail("overlay: %v", err)
	}
	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		fail("stream.quality must be in [1, 100], got %d", c.Stream.Quality)
	}
	if c.Stream.MaxWidth < 0 {
		fail("stream.max_width must be >= 0, got %d", c.Stream.MaxWidth)
	}
	if c.Profiler.ReportInterval < 0 || c.Profiler.FPSWindow < 0 {
		fail("profiler intervals must be positive")
	}
	if _, err := logging.NewConfig(c.Log.Level, c.Log.Format); err != nil {
		fail("log: %v", err)
	}
	return errs
}

// Style converts the overlay section into a compositor style.
func (o OverlayConfig) Style() (boundary.Style, error) {
	style := boundary.DefaultStyle()
	var err error
	if o.Background != "" {
		if style.Background, err = boundary.ParseColor(o.Background); err != nil {
			return style, err
		}
	}
	if o.Accent != "" {
		if style.Accent, err = boundary.ParseColor(o.Accent); err != nil {
			return style, err
		}
	}
	if o.StrokeWidth < 0 {
		return style, errors.Errorf("stroke_width must be >= 0, got %g", o.StrokeWidth)
	}
	if o.StrokeWidth > 0 {
		style.StrokeWidth = o.StrokeWidth
	}
	style.SoftEdges = o.SoftEdges
	return style, nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Wrap(err, "encode config")
}

func hexColor(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}
