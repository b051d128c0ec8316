package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	collage "github.com/menta2k/collage-maker"
	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/internal/utils"
)

// newMakeCmd creates the make command, which runs the whole pipeline:
// template layouts, diagonal splits and the justified presets.
func newMakeCmd(v *viper.Viper) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "make [input-dir]",
		Short: "Make every collage from a directory of photos",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, map[string]string{
				"output":   "output.dir",
				"format":   "output.format",
				"quality":  "output.quality",
				"text":     "overlay.text",
				"logo":     "overlay.logo",
				"seed":     "pipeline.seed",
				"shuffle":  "pipeline.shuffle",
				"workers":  "pipeline.workers",
				"detector": "detector.backend",
			})
			if err != nil {
				return err
			}
			in := cfg.Input.Dir
			if len(args) == 1 {
				in = args[0]
			}
			return runMake(cmd.Context(), printer{cmd.OutOrStdout()}, cfg, in)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", d.Output.Dir, "output directory")
	f.StringP("format", "f", d.Output.Format, "output format: jpg, png or webp")
	f.Int("quality", d.Output.Quality, "JPEG/WebP quality (1-100)")
	f.StringP("text", "t", "", "caption drawn on template collages")
	f.String("logo", d.Overlay.Logo, "logo text drawn bottom right, empty to disable")
	f.Uint64("seed", 0, "shuffle seed, 0 picks one from the clock")
	f.Bool("shuffle", d.Pipeline.Shuffle, "shuffle inputs and template picks")
	f.IntP("workers", "w", d.Pipeline.Workers, "concurrent image workers")
	f.String("detector", d.Detector.Backend, "face detector: pigo, ollama, llamacpp or none")

	return cmd
}

func runMake(ctx context.Context, p printer, cfg *config.Config, in string) error {
	if !utils.DirExists(in) {
		return fmt.Errorf("input directory %s does not exist", in)
	}
	logger := loggerFromContext(ctx)
	maker, err := newMaker(cfg, logger)
	if err != nil {
		return err
	}
	defer maker.Close()

	prog := newProgress(logger)
	report, err := maker.Run(ctx, in, cfg.Output.Dir)
	if err != nil {
		return err
	}
	prog.done("Pipeline finished")

	printReport(p, report)
	return nil
}

func printReport(p printer, r *collage.Report) {
	p.success("Wrote %s collages to %s", StyleNumber.Render(strconv.Itoa(len(r.Outputs))), outputDirOf(r))
	p.stats(
		statCount{r.Inputs, "inputs"},
		statCount{r.Stats.Horizontal, "horizontal"},
		statCount{r.Stats.Vertical, "vertical"},
	)
	p.detail("seed %d", r.Seed)
	for _, o := range r.Outputs {
		p.file(o.Name, o.Path, o.Width, o.Height)
	}
	for _, s := range r.Skipped {
		p.warning("skipped %s: %s", s.Name, s.Reason)
	}
	for _, f := range r.Failures {
		p.error("%s failed (%s): %s", f.Name, f.Code, f.Message)
	}
}

func outputDirOf(r *collage.Report) string {
	if len(r.Outputs) == 0 {
		return "nowhere"
	}
	return filepath.Dir(r.Outputs[0].Path)
}
