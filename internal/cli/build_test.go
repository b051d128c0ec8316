package cli

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/pkg/detection"
	"github.com/menta2k/collage-maker/pkg/types"
)

func TestBuildDetector(t *testing.T) {
	logger := log.New(io.Discard)

	tests := []struct {
		name    string
		cfg     config.DetectorConfig
		want    string
		wantErr bool
	}{
		{
			name: "pigo without cascade falls back",
			cfg:  config.DetectorConfig{Backend: config.BackendPigo, CascadePath: filepath.Join(t.TempDir(), "missing")},
			want: "unavailable",
		},
		{name: "none", cfg: config.DetectorConfig{Backend: config.BackendNone}, want: "unavailable"},
		{name: "ollama", cfg: config.DetectorConfig{Backend: config.BackendOllama, Model: "llava"}, want: "vision"},
		{name: "llamacpp", cfg: config.DetectorConfig{Backend: config.BackendLlamaCpp, URL: "http://localhost:9999", Model: "m"}, want: "vision"},
		{name: "ollama bad url", cfg: config.DetectorConfig{Backend: config.BackendOllama, URL: "localhost"}, wantErr: true},
		{name: "unknown", cfg: config.DetectorConfig{Backend: "opencv"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := buildDetector(tt.cfg, logger)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error, got detector %T", d)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildDetector failed: %v", err)
			}
			got := ""
			switch d.(type) {
			case detection.Unavailable:
				got = "unavailable"
			case *detection.VisionDetector:
				got = "vision"
			}
			if got != tt.want {
				t.Errorf("got detector %T, want %s", d, tt.want)
			}
		})
	}
}

func TestBuildOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Format = "png"
	cfg.Overlay.Text = "Trip"
	cfg.Pipeline.Seed = 99
	cfg.Face.Lexicographic = true
	cfg.Packing.Presets = []types.Preset{{Width: 500, RowHeight: 120}}

	opts := buildOptions(cfg, detection.Unavailable{}, log.New(io.Discard))

	if opts.Format != "png" || opts.Text != "Trip" || opts.Seed != 99 {
		t.Errorf("output and overlay settings not mapped: %+v", opts)
	}
	if !opts.Face.Zones.Lexicographic {
		t.Error("lexicographic zone comparison not mapped")
	}
	if len(opts.Presets) != 1 || opts.Presets[0].Width != 500 {
		t.Errorf("presets not mapped: %v", opts.Presets)
	}
	if opts.Packing.Margin != cfg.Packing.Margin || opts.HeroSize != cfg.Face.HeroSize {
		t.Error("packing or face sizes not mapped")
	}
	if opts.Face.CanvasWidth != 1200 || opts.Face.Anchor.X != 200 {
		t.Errorf("face defaults lost: %+v", opts.Face)
	}
}
