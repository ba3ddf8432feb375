package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-silhouette/boundary"
	"github.com/nvr-ai/go-silhouette/config"
	"github.com/nvr-ai/go-silhouette/images"
	"github.com/nvr-ai/go-silhouette/params"
	"github.com/nvr-ai/go-silhouette/source"
)

// processFlags configure offline processing.
type processFlags struct {
	Input      string
	Output     string
	Format     string
	ParamsFile string
	SoftEdges  bool
	Masks      bool
	Progress   bool
}

var processOpts processFlags

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Render the overlay for every frame of a video file or image directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("params") {
			cfg.ParamsFile = processOpts.ParamsFile
		}
		if processOpts.SoftEdges {
			cfg.Overlay.SoftEdges = true
		}
		return runProcess(cmd.Context(), cfg, processOpts, logger)
	},
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processOpts.Input, "input", "i", "", "Video file or directory of images")
	f.StringVarP(&processOpts.Output, "output", "o", "overlay_frames", "Directory the rendered frames are written to")
	f.StringVarP(&processOpts.Format, "format", "f", "png", "Output format (png, jpg)")
	f.StringVarP(&processOpts.ParamsFile, "params", "p", "", "YAML parameter file")
	f.BoolVar(&processOpts.SoftEdges, "soft-edges", false, "Shade region borders by mask intensity")
	f.BoolVar(&processOpts.Masks, "masks", false, "Also write the stabilized mask of every frame")
	f.BoolVar(&processOpts.Progress, "progress", true, "Show a progress bar on stderr")
	_ = processCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(processCmd)
}

// runProcess writes frame-<n> overlays for every input frame and returns
// once the input is exhausted or ctx is done.
func runProcess(ctx context.Context, c *config.Config, o processFlags, log *zap.SugaredLogger) (err error) {
	format, err := images.ParseFormat(o.Format)
	if err != nil {
		return err
	}
	style, err := c.Overlay.Style()
	if err != nil {
		return err
	}
	set := c.Params
	if c.ParamsFile != "" {
		if set, err = params.LoadFile(c.ParamsFile); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(o.Output, 0o755); err != nil {
		return errors.Wrapf(err, "create output directory %s", o.Output)
	}

	srcCfg := source.ParseDevice(o.Input, isDir)
	if srcCfg.Kind != source.KindVideo && srcCfg.Kind != source.KindDirectory {
		return errors.Errorf("process needs a video file or directory, got %s %q", srcCfg.Kind, o.Input)
	}
	src, err := source.Open(srcCfg)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer func() { err = multierr.Append(err, errors.Wrap(src.Close(), "close input")) }()

	pipe := boundary.New(boundary.Options{Style: style, Parallel: true, Logger: log.Named("pipeline")})
	store := params.NewStore(set)
	var bar *progressbar.ProgressBar
	if o.Progress {
		bar = newProgressBar(srcCfg)
	}
	written := 0
	sink := boundary.SinkFunc(func(_ image.Image, res *boundary.Result) error {
		name := fmt.Sprintf("frame-%06d%s", res.Stats.Index, format.Extension())
		if err := save(res.Output, filepath.Join(o.Output, name), format, c.Stream.Quality); err != nil {
			return err
		}
		if o.Masks {
			mask := fmt.Sprintf("mask-%06d%s", res.Stats.Index, format.Extension())
			if err := save(res.Smoothed, filepath.Join(o.Output, mask), format, c.Stream.Quality); err != nil {
				return err
			}
		}
		written++
		if bar != nil {
			_ = bar.Add(1)
		}
		log.Debugw("frame written", "frame", res.Stats.Index, "contours", res.Stats.Contours, "boxes", res.Stats.Boxes)
		return nil
	})

	if err := pipe.Run(ctx, source.Frames(ctx, src), store, sink); err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	log.Infow("processing complete", "input", o.Input, "output", o.Output, "frames", written)
	return nil
}

// newProgressBar counts directory frames up front. Videos get a spinner
// because gocv only estimates their length.
func newProgressBar(cfg source.Config) *progressbar.ProgressBar {
	total := int64(-1)
	if cfg.Kind == source.KindDirectory {
		if files, err := source.ListImageFiles(cfg.Path); err == nil {
			total = int64(len(files))
		}
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("Rendering overlays"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
}

func save(img image.Image, path string, format images.ImageFormat, quality int) error {
	opts := []imaging.EncodeOption{}
	if format == images.FormatJPEG {
		opts = append(opts, imaging.JPEGQuality(quality))
	}
	return errors.Wrapf(imaging.Save(img, path, opts...), "write %s", path)
}
