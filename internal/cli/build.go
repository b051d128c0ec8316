package cli

import (
	"fmt"

	"github.com/charmbracelet/log"

	collage "github.com/menta2k/collage-maker"
	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/pkg/detection"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/facecrop"
	"github.com/menta2k/collage-maker/pkg/llamacpp"
	"github.com/menta2k/collage-maker/pkg/ollama"
)

// buildDetector creates the configured face detector. A missing pigo
// cascade is not fatal: crops fall back to the fixed anchor.
func buildDetector(cfg config.DetectorConfig, logger *log.Logger) (detection.FaceDetector, error) {
	switch cfg.Backend {
	case config.BackendPigo:
		d, err := detection.NewPigoDetector(cfg.PigoConfig())
		if err != nil {
			logger.Warn("face detection disabled, crops use the fixed anchor", "err", errors.UserMessage(err))
			return detection.Unavailable{Reason: errors.UserMessage(err)}, nil
		}
		return d, nil
	case config.BackendOllama:
		c, err := ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return detection.NewVisionDetector(c, cfg.Model, logger), nil
	case config.BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("llama.cpp client: %w", err)
		}
		return detection.NewVisionDetector(c, cfg.Model, logger), nil
	case config.BackendNone:
		return detection.Unavailable{Reason: "face detection disabled by config"}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown detector backend %q", cfg.Backend)
	}
}

// buildOptions maps the config onto Maker options
func buildOptions(cfg *config.Config, detector detection.FaceDetector, logger *log.Logger) collage.Options {
	face := facecrop.DefaultConfig()
	face.Zones.Lexicographic = cfg.Face.Lexicographic

	return collage.Options{
		Packing:        cfg.Packing.EngineConfig(),
		Face:           face,
		Detector:       detector,
		Presets:        cfg.Packing.Presets,
		HorizontalSize: cfg.Face.HorizontalSize,
		VerticalSize:   cfg.Face.VerticalSize,
		HeroSize:       cfg.Face.HeroSize,
		Extensions:     cfg.Input.Extensions,
		MaxDimension:   cfg.Input.MaxDimension,
		MinDimension:   cfg.Input.MinDimension,
		Workers:        cfg.Pipeline.Workers,
		Seed:           cfg.Pipeline.Seed,
		Shuffle:        cfg.Pipeline.Shuffle,
		Text:           cfg.Overlay.Text,
		Logo:           cfg.Overlay.Logo,
		FontSize:       cfg.Overlay.FontSize,
		Format:         cfg.Output.Format,
		Quality:        cfg.Output.Quality,
		Lossless:       cfg.Output.Lossless,
		Prefix:         cfg.Output.Prefix,
		Logger:         logger,
	}
}

// newMaker wires a Maker from the config
func newMaker(cfg *config.Config, logger *log.Logger) (*collage.Maker, error) {
	detector, err := buildDetector(cfg.Detector, logger)
	if err != nil {
		return nil, err
	}
	return collage.New(buildOptions(cfg, detector, logger))
}
