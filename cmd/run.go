package cmd

import (
	"context"
	"image"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-silhouette/boundary"
	"github.com/nvr-ai/go-silhouette/config"
	"github.com/nvr-ai/go-silhouette/display"
	"github.com/nvr-ai/go-silhouette/params"
	"github.com/nvr-ai/go-silhouette/profiler"
	"github.com/nvr-ai/go-silhouette/server"
	"github.com/nvr-ai/go-silhouette/source"
	"github.com/nvr-ai/go-silhouette/stream"
)

// runFlags are the run options that override the configuration file.
type runFlags struct {
	Device     string
	Resolution string
	FPS        float64
	Addr       string
	NoServer   bool
	Display    bool
	Contours   bool
	ParamsFile string
	SoftEdges  bool
	RawFeed    bool
	Profile    bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Overlay a live camera, video file, image directory or demo feed",
	Long: `Reads frames from the configured source, renders the stabilized overlay and
serves it as MJPEG on /video_feed and/or shows it in local windows.

Press q in a window or send SIGINT to stop.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyRunFlags(cmd, cfg, runOpts)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runLive(cmd.Context(), cfg, logger)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.Device, "device", "d", "", "Camera index, video file, image directory or \"demo\"")
	f.StringVarP(&runOpts.Resolution, "resolution", "r", "", "Capture size by name (720p, vga) or WxH")
	f.Float64Var(&runOpts.FPS, "fps", 0, "Limit the frame rate (0 = source rate)")
	f.StringVar(&runOpts.Addr, "addr", "", "HTTP listen address")
	f.BoolVar(&runOpts.NoServer, "no-server", false, "Disable the HTTP server")
	f.BoolVar(&runOpts.Display, "display", false, "Show local windows")
	f.BoolVar(&runOpts.Contours, "contours", false, "Show the raw contour debug window (with --display)")
	f.StringVarP(&runOpts.ParamsFile, "params", "p", "", "YAML parameter file, reloaded on change")
	f.BoolVar(&runOpts.SoftEdges, "soft-edges", false, "Shade region borders by mask intensity")
	f.BoolVar(&runOpts.RawFeed, "raw-feed", false, "Also serve the input frames on /video_feed/raw")
	f.BoolVar(&runOpts.Profile, "profile", false, "Log per-stage timings periodically")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags copies explicitly set flags over the configuration.
func applyRunFlags(cmd *cobra.Command, c *config.Config, o runFlags) {
	flags := cmd.Flags()
	if flags.Changed("device") {
		c.Source = source.ParseDevice(o.Device, isDir)
	}
	if flags.Changed("resolution") {
		c.Source.Resolution = o.Resolution
	}
	if flags.Changed("fps") {
		c.Source.FPS = o.FPS
	}
	if flags.Changed("addr") {
		c.Server.Addr = o.Addr
	}
	if o.NoServer {
		c.Server.Enabled = false
	}
	if o.Display {
		c.Display.Enabled = true
	}
	if o.Contours {
		c.Display.Contours = true
	}
	if flags.Changed("params") {
		c.ParamsFile = o.ParamsFile
	}
	if o.SoftEdges {
		c.Overlay.SoftEdges = true
	}
	if o.RawFeed {
		c.Stream.Raw = true
	}
	if o.Profile {
		c.Profiler.Enabled = true
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// runLive wires source, pipeline, hubs, server, windows and profiler
// together and blocks until the source ends, q is pressed or ctx is done.
//
// The pipeline loop runs on the calling goroutine so window calls stay on
// the thread main locked. Everything else runs in an errgroup whose first
// error stops the loop.
func runLive(ctx context.Context, c *config.Config, log *zap.SugaredLogger) (err error) {
	style, err := c.Overlay.Style()
	if err != nil {
		return err
	}
	if !c.Server.Enabled && !c.Display.Enabled {
		return errors.New("nothing to show: enable the server or the display")
	}

	store := params.NewStore(c.Params)
	if c.ParamsFile != "" {
		set, err := params.LoadFile(c.ParamsFile)
		if err != nil {
			return err
		}
		store.Replace(set)
	}

	src, err := source.Open(c.Source)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer func() { err = multierr.Append(err, errors.Wrap(src.Close(), "close source")) }()

	var prof *profiler.RuntimeProfiler
	if c.Profiler.Enabled {
		prof = profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
			ReportInterval: c.Profiler.ReportInterval,
			FPSWindow:      c.Profiler.FPSWindow,
			Logger:         log.Named("profiler"),
		})
		prof.Start(ctx)
		defer prof.Stop()
	}

	hubOpts := stream.HubOptions{Quality: c.Stream.Quality, MaxWidth: c.Stream.MaxWidth, Logger: log.Named("stream")}
	overlay := stream.NewHub(hubOpts)
	defer overlay.Close()
	var raw *stream.Hub
	if c.Stream.Raw {
		raw = stream.NewHub(hubOpts)
		defer raw.Close()
	}

	sinks := boundary.Sinks{publishSink(overlay, raw)}
	if c.Display.Enabled {
		opts := display.Options{Contours: c.Display.Contours, Accent: style.Accent, Logger: log.Named("display")}
		if c.Display.Settings {
			opts.Store = store
		}
		win := display.New(opts)
		defer func() { err = multierr.Append(err, errors.Wrap(win.Close(), "close windows")) }()
		sinks = append(sinks, win)
	}

	pipe := boundary.New(boundary.Options{
		Style:    style,
		Parallel: true,
		Logger:   log.Named("pipeline"),
		Profiler: prof,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if c.Server.Enabled {
		srv := server.New(server.Options{
			Addr:     c.Server.Addr,
			Overlay:  overlay,
			Raw:      raw,
			Store:    store,
			Profiler: prof,
			Logger:   log.Named("server"),
		})
		g.Go(func() error { return srv.ListenAndServe(gctx) })
	}
	if c.ParamsFile != "" {
		g.Go(func() error { return params.Watch(gctx, c.ParamsFile, store, log.Named("params")) })
	}

	log.Infow("silhouette running",
		"source", c.Source.Kind,
		"device", c.Source.Device,
		"path", c.Source.Path,
		"server", c.Server.Enabled,
		"addr", c.Server.Addr,
		"display", c.Display.Enabled,
		"params", store.Snapshot().Values(),
	)

	runErr := pipe.Run(gctx, source.Frames(gctx, src), store, sinks)
	log.Infow("pipeline finished", "frames", pipe.Frames(), "error", runErr)
	overlay.Close()
	if raw != nil {
		raw.Close()
	}
	cancel()
	return multierr.Combine(runErr, g.Wait())
}

// publishSink sends overlays, and input frames when raw is set, to the hubs.
func publishSink(overlay, raw *stream.Hub) boundary.Sink {
	return boundary.SinkFunc(func(frame image.Image, res *boundary.Result) error {
		if err := overlay.Publish(res.Output); err != nil && !errors.Is(err, stream.ErrHubClosed) {
			return err
		}
		if raw != nil {
			if err := raw.Publish(frame); err != nil && !errors.Is(err, stream.ErrHubClosed) {
				return err
			}
		}
		return nil
	})
}
