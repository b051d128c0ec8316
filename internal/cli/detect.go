package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/pkg/detection"
	"github.com/menta2k/collage-maker/pkg/facecrop"
	"github.com/menta2k/collage-maker/pkg/processing"
)

// newDetectCmd creates the detect command, a diagnostic for the detector
// backends and the zone classification.
func newDetectCmd(v *viper.Viper) *cobra.Command {
	d := config.Default()
	var describe bool

	cmd := &cobra.Command{
		Use:   "detect <image|url>",
		Short: "List the faces found in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, map[string]string{
				"detector": "detector.backend",
				"model":    "detector.model",
				"url":      "detector.url",
				"cascade":  "detector.cascade_path",
			})
			if err != nil {
				return err
			}
			return runDetect(cmd.Context(), printer{cmd.OutOrStdout()}, cfg, args[0], describe)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&describe, "describe", false, "ask a vision model to describe the image first")
	f.String("detector", d.Detector.Backend, "face detector: pigo, ollama, llamacpp or none")
	f.String("model", "", "vision model for the ollama and llamacpp detectors")
	f.String("url", "", "vision server URL")
	f.String("cascade", d.Detector.CascadePath, "pigo cascade file")

	return cmd
}

func runDetect(ctx context.Context, p printer, cfg *config.Config, src string, describe bool) error {
	logger := loggerFromContext(ctx)
	detector, err := buildDetector(cfg.Detector, logger)
	if err != nil {
		return err
	}

	img, err := processing.NewProcessor().LoadImageSmart(src)
	if err != nil {
		return err
	}

	if describe {
		vd, ok := detector.(*detection.VisionDetector)
		if !ok {
			return fmt.Errorf("--describe needs the ollama or llamacpp detector, got %s", cfg.Detector.Backend)
		}
		text, err := vd.TestVision(ctx, img)
		if err != nil {
			return err
		}
		p.keyValue("description", text)
	}

	prog := newProgress(logger)
	boxes, err := detector.Detect(ctx, img)
	if err != nil {
		return err
	}
	prog.done("Detection finished")

	b := img.Bounds()
	p.info("%s %dx%d", src, b.Dx(), b.Dy())
	if len(boxes) == 0 {
		p.warning("no faces found")
		return nil
	}

	zones := facecrop.DefaultZonePoints()
	zones.Lexicographic = cfg.Face.Lexicographic
	dominant, _ := facecrop.DominantFace(boxes)
	for i, box := range boxes {
		mark := ""
		if box == dominant {
			mark = " (dominant)"
		}
		p.detail("face %d at %d,%d size %dx%d zone %s%s", i+1, box.X, box.Y, box.W, box.H, zones.Classify(box), mark)
	}
	p.success("Found %d faces", len(boxes))
	return nil
}
