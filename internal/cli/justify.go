package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/internal/utils"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/overlay"
	"github.com/menta2k/collage-maker/pkg/types"
)

type justifyOpts struct {
	width     int
	rowHeight int
	captionAt string
}

// newJustifyCmd creates the justify command. Without --width and --height
// it renders every preset for the input count.
func newJustifyCmd(v *viper.Viper) *cobra.Command {
	d := config.Default()
	var opts justifyOpts

	cmd := &cobra.Command{
		Use:   "justify [input-dir]",
		Short: "Pack photos into justified rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (opts.width > 0) != (opts.rowHeight > 0) {
				return fmt.Errorf("--width and --height must be given together")
			}
			if opts.captionAt != "" {
				if _, err := overlay.ParseLocation(opts.captionAt); err != nil {
					return err
				}
			}
			cfg, err := loadConfig(cmd, v, map[string]string{
				"output":     "output.dir",
				"format":     "output.format",
				"margin":     "packing.margin",
				"min-height": "packing.min_row_height",
				"shuffle":    "pipeline.shuffle",
				"seed":       "pipeline.seed",
				"text":       "overlay.text",
			})
			if err != nil {
				return err
			}
			// justified collages never need faces
			cfg.Detector.Backend = config.BackendNone

			in := cfg.Input.Dir
			if len(args) == 1 {
				in = args[0]
			}
			return runJustify(cmd.Context(), printer{cmd.OutOrStdout()}, cfg, in, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.width, "width", 0, "collage width (default: size dependent presets)")
	f.IntVar(&opts.rowHeight, "height", 0, "starting row height")
	f.StringVar(&opts.captionAt, "caption-at", "", "also draw the --text caption: bottom-left, top-right or bottom-right")
	f.StringP("text", "t", "", "caption text for --caption-at")
	f.StringP("output", "o", d.Output.Dir, "output directory")
	f.StringP("format", "f", d.Output.Format, "output format: jpg, png or webp")
	f.Int("margin", d.Packing.Margin, "gap between images in pixels")
	f.Int("min-height", d.Packing.MinRowHeight, "give up below this row height")
	f.Bool("shuffle", false, "shuffle input order")
	f.Uint64("seed", 0, "shuffle seed, 0 picks one from the clock")

	return cmd
}

func runJustify(ctx context.Context, p printer, cfg *config.Config, in string, opts justifyOpts) error {
	logger := loggerFromContext(ctx)
	maker, err := newMaker(cfg, logger)
	if err != nil {
		return err
	}
	defer maker.Close()

	files, err := utils.ListImageFiles(in, cfg.Input.Extensions...)
	if err != nil {
		return err
	}
	images, skipped, err := maker.Load(ctx, files)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		p.warning("skipped %s: %s", s.Name, s.Reason)
	}
	if len(images) == 0 {
		return errors.New(errors.ErrCodeEmptyInput, "no usable images in %s", in)
	}
	maker.Shuffle(images)
	if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
		return err
	}

	presets := maker.Presets(len(images))
	if opts.width > 0 {
		presets = []types.Preset{{Width: opts.width, RowHeight: opts.rowHeight}}
	}

	failed := 0
	for _, preset := range presets {
		name := fmt.Sprintf("justified-%dx%d", preset.Width, preset.RowHeight)
		img, layout, err := maker.Justify(images, preset)
		if err != nil {
			failed++
			p.error("%s failed (%s): %s", name, errors.GetCode(err), errors.UserMessage(err))
			continue
		}
		out, err := maker.Save(maker.Decorate(img, overlay.Location(opts.captionAt), true), name, cfg.Output.Dir)
		if err != nil {
			return err
		}
		p.file(out.Name, out.Path, out.Width, out.Height)
		p.detail("%d rows at height %d after %d attempts", len(layout.Rows), layout.RowHeight, layout.Attempts)
	}

	if failed == len(presets) {
		return errors.New(errors.ErrCodeNonConvergence, "no preset produced a layout")
	}
	p.success("Justified %d images", len(images))
	return nil
}
