package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/internal/utils"
	"github.com/menta2k/collage-maker/pkg/facecrop"
	"github.com/menta2k/collage-maker/pkg/processing"
	"github.com/menta2k/collage-maker/pkg/types"
)

type cropOpts struct {
	sizes []string
	debug bool
}

// newCropCmd creates the crop command. Each --size produces one crop.
func newCropCmd(v *viper.Viper) *cobra.Command {
	d := config.Default()
	opts := cropOpts{sizes: []string{"900x600"}}

	cmd := &cobra.Command{
		Use:   "crop <image|url>",
		Short: "Crop an image around its dominant face",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes, err := parseSizes(opts.sizes)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, v, map[string]string{
				"output":   "output.dir",
				"format":   "output.format",
				"detector": "detector.backend",
				"model":    "detector.model",
				"url":      "detector.url",
				"cascade":  "detector.cascade_path",
			})
			if err != nil {
				return err
			}
			return runCrop(cmd.Context(), printer{cmd.OutOrStdout()}, cfg, args[0], sizes, opts.debug)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.sizes, "size", "s", opts.sizes, "output size WxH, repeatable")
	f.BoolVar(&opts.debug, "debug", false, "also write an overlay showing the face and the crop window")
	f.StringP("output", "o", d.Output.Dir, "output directory")
	f.StringP("format", "f", d.Output.Format, "output format: jpg, png or webp")
	f.String("detector", d.Detector.Backend, "face detector: pigo, ollama, llamacpp or none")
	f.String("model", "", "vision model for the ollama and llamacpp detectors")
	f.String("url", "", "vision server URL")
	f.String("cascade", d.Detector.CascadePath, "pigo cascade file")

	return cmd
}

func parseSizes(raw []string) ([]types.Size, error) {
	sizes := make([]types.Size, 0, len(raw))
	for _, s := range raw {
		var size types.Size
		if _, err := fmt.Sscanf(s, "%dx%d", &size.W, &size.H); err != nil || size.W < 1 || size.H < 1 {
			return nil, fmt.Errorf("invalid size %q, want WxH", s)
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func runCrop(ctx context.Context, p printer, cfg *config.Config, src string, sizes []types.Size, debug bool) error {
	logger := loggerFromContext(ctx)
	maker, err := newMaker(cfg, logger)
	if err != nil {
		return err
	}
	defer maker.Close()

	img, err := maker.Processor().LoadImageSmart(src)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
		return err
	}

	for _, size := range sizes {
		name := fmt.Sprintf("crop-%dx%d", size.W, size.H)
		crop, result, err := maker.Crop(ctx, img, size)
		if err != nil {
			return err
		}
		out, err := maker.Save(crop, name, cfg.Output.Dir)
		if err != nil {
			return err
		}
		p.file(out.Name, out.Path, out.Width, out.Height)
		if result.Fallback {
			p.detail("no face found, cropped around the anchor")
		} else {
			p.detail("face at %d,%d size %dx%d", result.Face.X, result.Face.Y, result.Face.W, result.Face.H)
		}

		if debug {
			// the window refers to the covered image, not the source
			covered := facecrop.Cover(img, size.W, size.H)
			overlay := processing.CreateDebugOverlay(covered, result.Face, result.Window, result.Fallback)
			dbg, err := maker.Save(overlay, name+"-debug", cfg.Output.Dir)
			if err != nil {
				return err
			}
			p.file(dbg.Name, dbg.Path, dbg.Width, dbg.Height)
		}
	}
	p.success("Cropped %s", src)
	return nil
}
