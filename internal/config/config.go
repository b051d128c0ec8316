package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/menta2k/collage-maker/pkg/analyzer"
	"github.com/menta2k/collage-maker/pkg/detection"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/packing"
	"github.com/menta2k/collage-maker/pkg/processing"
	"github.com/menta2k/collage-maker/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. COLLAGE_OUTPUT_DIR
const EnvPrefix = "COLLAGE"

// Detector backends
const (
	BackendPigo     = "pigo"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
	BackendNone     = "none"
)

// Config holds the application configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input" json:"input"`
	Output   OutputConfig   `mapstructure:"output" json:"output"`
	Packing  PackingConfig  `mapstructure:"packing" json:"packing"`
	Face     FaceConfig     `mapstructure:"face" json:"face"`
	Detector DetectorConfig `mapstructure:"detector" json:"detector"`
	Overlay  OverlayConfig  `mapstructure:"overlay" json:"overlay"`
	Pipeline PipelineConfig `mapstructure:"pipeline" json:"pipeline"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
}

// InputConfig controls which files are read and how large they are kept
type InputConfig struct {
	Dir          string   `mapstructure:"dir" json:"dir"`
	Extensions   []string `mapstructure:"extensions" json:"extensions"`
	MaxDimension int      `mapstructure:"max_dimension" json:"max_dimension"`
	MinDimension int      `mapstructure:"min_dimension" json:"min_dimension"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir      string `mapstructure:"dir" json:"dir"`
	Format   string `mapstructure:"format" json:"format"`
	Quality  int    `mapstructure:"quality" json:"quality"`
	Lossless bool   `mapstructure:"lossless" json:"lossless"`
	Prefix   string `mapstructure:"prefix" json:"prefix"`
}

// PackingConfig holds the justified layout settings
type PackingConfig struct {
	Margin             int            `mapstructure:"margin" json:"margin"`
	RowHeightDecrement int            `mapstructure:"row_height_decrement" json:"row_height_decrement"`
	MinRowHeight       int            `mapstructure:"min_row_height" json:"min_row_height"`
	MaxIterations      int            `mapstructure:"max_iterations" json:"max_iterations"`
	Background         []int          `mapstructure:"background" json:"background"`
	Presets            []types.Preset `mapstructure:"presets" json:"presets,omitempty"`
}

// FaceConfig holds the face crop sizes of the prepared pools
type FaceConfig struct {
	HorizontalSize types.Size `mapstructure:"horizontal_size" json:"horizontal_size"`
	VerticalSize   types.Size `mapstructure:"vertical_size" json:"vertical_size"`
	HeroSize       types.Size `mapstructure:"hero_size" json:"hero_size"`
	// Lexicographic switches zone comparison to (x, y) tuple ordering
	Lexicographic bool `mapstructure:"lexicographic" json:"lexicographic"`
}

// DetectorConfig selects and tunes the face detector
type DetectorConfig struct {
	Backend      string  `mapstructure:"backend" json:"backend"`
	CascadePath  string  `mapstructure:"cascade_path" json:"cascade_path"`
	MinSize      int     `mapstructure:"min_size" json:"min_size"`
	MaxSize      int     `mapstructure:"max_size" json:"max_size"`
	ShiftFactor  float64 `mapstructure:"shift_factor" json:"shift_factor"`
	ScaleFactor  float64 `mapstructure:"scale_factor" json:"scale_factor"`
	IoUThreshold float64 `mapstructure:"iou_threshold" json:"iou_threshold"`
	MinQuality   float64 `mapstructure:"min_quality" json:"min_quality"`
	URL          string  `mapstructure:"url" json:"url"`
	Model        string  `mapstructure:"model" json:"model"`
}

// OverlayConfig holds caption and logo settings
type OverlayConfig struct {
	Text     string  `mapstructure:"text" json:"text"`
	Logo     string  `mapstructure:"logo" json:"logo"`
	FontSize float64 `mapstructure:"font_size" json:"font_size"`
}

// PipelineConfig controls batch execution
type PipelineConfig struct {
	Workers int `mapstructure:"workers" json:"workers"`
	// Seed 0 picks a time based seed
	Seed    uint64 `mapstructure:"seed" json:"seed"`
	Shuffle bool   `mapstructure:"shuffle" json:"shuffle"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" json:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb" json:"max_upload_mb"`
	MaxDimension int           `mapstructure:"max_dimension" json:"max_dimension"`
}

// Default returns a configuration with default values
func Default() *Config {
	pc := packing.DefaultConfig()
	dc := detection.DefaultPigoConfig()
	return &Config{
		Input: InputConfig{
			Dir:          ".",
			Extensions:   []string{"jpg", "jpeg", "png", "webp"},
			MaxDimension: 1200,
			MinDimension: analyzer.DefaultMinImageSize,
		},
		Output: OutputConfig{
			Dir:     "./output",
			Format:  "jpg",
			Quality: 90,
			Prefix:  "collage",
		},
		Packing: PackingConfig{
			Margin:             pc.Margin,
			RowHeightDecrement: pc.RowHeightDecrement,
			MinRowHeight:       pc.MinRowHeight,
			MaxIterations:      pc.MaxIterations,
			Background:         []int{int(pc.Background.R), int(pc.Background.G), int(pc.Background.B)},
		},
		Face: FaceConfig{
			HorizontalSize: types.Size{W: 900, H: 600},
			VerticalSize:   types.Size{W: 600, H: 900},
			HeroSize:       types.Size{W: 900, H: 450},
		},
		Detector: DetectorConfig{
			Backend:      BackendPigo,
			CascadePath:  dc.CascadePath,
			MinSize:      dc.MinSize,
			MaxSize:      dc.MaxSize,
			ShiftFactor:  dc.ShiftFactor,
			ScaleFactor:  dc.ScaleFactor,
			IoUThreshold: dc.IoUThreshold,
			MinQuality:   float64(dc.MinQuality),
		},
		Overlay: OverlayConfig{
			Logo:     "HauteBook",
			FontSize: 30,
		},
		Pipeline: PipelineConfig{
			Workers: runtime.NumCPU(),
			Shuffle: true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			MaxUploadMB:  64,
			MaxDimension: 4096,
		},
	}
}

// NewViper returns a viper instance carrying the defaults and environment
// overrides. Callers bind their flags onto it before calling Read.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("input.dir", d.Input.Dir)
	v.SetDefault("input.extensions", d.Input.Extensions)
	v.SetDefault("input.max_dimension", d.Input.MaxDimension)
	v.SetDefault("input.min_dimension", d.Input.MinDimension)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.quality", d.Output.Quality)
	v.SetDefault("output.lossless", d.Output.Lossless)
	v.SetDefault("output.prefix", d.Output.Prefix)

	v.SetDefault("packing.margin", d.Packing.Margin)
	v.SetDefault("packing.row_height_decrement", d.Packing.RowHeightDecrement)
	v.SetDefault("packing.min_row_height", d.Packing.MinRowHeight)
	v.SetDefault("packing.max_iterations", d.Packing.MaxIterations)
	v.SetDefault("packing.background", d.Packing.Background)

	v.SetDefault("face.horizontal_size.width", d.Face.HorizontalSize.W)
	v.SetDefault("face.horizontal_size.height", d.Face.HorizontalSize.H)
	v.SetDefault("face.vertical_size.width", d.Face.VerticalSize.W)
	v.SetDefault("face.vertical_size.height", d.Face.VerticalSize.H)
	v.SetDefault("face.hero_size.width", d.Face.HeroSize.W)
	v.SetDefault("face.hero_size.height", d.Face.HeroSize.H)
	v.SetDefault("face.lexicographic", d.Face.Lexicographic)

	v.SetDefault("detector.backend", d.Detector.Backend)
	v.SetDefault("detector.cascade_path", d.Detector.CascadePath)
	v.SetDefault("detector.min_size", d.Detector.MinSize)
	v.SetDefault("detector.max_size", d.Detector.MaxSize)
	v.SetDefault("detector.shift_factor", d.Detector.ShiftFactor)
	v.SetDefault("detector.scale_factor", d.Detector.ScaleFactor)
	v.SetDefault("detector.iou_threshold", d.Detector.IoUThreshold)
	v.SetDefault("detector.min_quality", d.Detector.MinQuality)
	v.SetDefault("detector.url", d.Detector.URL)
	v.SetDefault("detector.model", d.Detector.Model)

	v.SetDefault("overlay.text", d.Overlay.Text)
	v.SetDefault("overlay.logo", d.Overlay.Logo)
	v.SetDefault("overlay.font_size", d.Overlay.FontSize)

	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.seed", d.Pipeline.Seed)
	v.SetDefault("pipeline.shuffle", d.Pipeline.Shuffle)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.max_dimension", d.Server.MaxDimension)
}

// Read loads the optional config file at path into v and decodes the
// result. The file type follows its extension (yaml, json, toml).
func Read(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads defaults, the environment and the optional file at path
func Load(path string) (*Config, error) {
	return Read(NewViper(), path)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}

	if c.Input.MaxDimension < 1 {
		return invalid("input.max_dimension must be positive")
	}
	if c.Input.MinDimension < 1 || c.Input.MinDimension > c.Input.MaxDimension {
		return invalid("input.min_dimension must be between 1 and input.max_dimension")
	}
	if _, err := processing.NormalizeFormat(c.Output.Format); err != nil {
		return invalid("output.format: %v", err)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return invalid("output.quality must be between 1 and 100")
	}
	if len(c.Packing.Background) != 3 {
		return invalid("packing.background must have 3 components, got %d", len(c.Packing.Background))
	}
	for _, ch := range c.Packing.Background {
		if ch < 0 || ch > 255 {
			return invalid("packing.background components must be between 0 and 255")
		}
	}
	if err := c.Packing.EngineConfig().Validate(); err != nil {
		return err
	}
	for _, p := range c.Packing.Presets {
		if p.Width < 1 || p.RowHeight < 1 {
			return invalid("packing.presets entries must be positive, got %dx%d", p.Width, p.RowHeight)
		}
	}
	for name, s := range map[string]types.Size{
		"face.horizontal_size": c.Face.HorizontalSize,
		"face.vertical_size":   c.Face.VerticalSize,
		"face.hero_size":       c.Face.HeroSize,
	} {
		if s.W < 1 || s.H < 1 {
			return invalid("%s must be positive, got %dx%d", name, s.W, s.H)
		}
	}
	switch c.Detector.Backend {
	case BackendPigo, BackendNone:
	case BackendOllama, BackendLlamaCpp:
		if c.Detector.Model == "" {
			return invalid("detector.model is required for the %s backend", c.Detector.Backend)
		}
	default:
		return invalid("detector.backend must be one of pigo, ollama, llamacpp, none; got %q", c.Detector.Backend)
	}
	if c.Pipeline.Workers < 1 {
		return invalid("pipeline.workers must be positive")
	}
	if c.Server.MaxUploadMB < 0 {
		return invalid("server.max_upload_mb must not be negative")
	}
	if c.Server.MaxDimension < 1 {
		return invalid("server.max_dimension must be positive")
	}
	return nil
}

// EngineConfig converts the section to the row packer's config
func (p PackingConfig) EngineConfig() packing.Config {
	bg := color.NRGBA{A: 255}
	if len(p.Background) == 3 {
		bg.R, bg.G, bg.B = uint8(p.Background[0]), uint8(p.Background[1]), uint8(p.Background[2])
	}
	return packing.Config{
		Margin:             p.Margin,
		RowHeightDecrement: p.RowHeightDecrement,
		MinRowHeight:       p.MinRowHeight,
		MaxIterations:      p.MaxIterations,
		Background:         bg,
	}
}

// PigoConfig converts the section to the cascade detector's config
func (d DetectorConfig) PigoConfig() detection.PigoConfig {
	return detection.PigoConfig{
		CascadePath:  d.CascadePath,
		MinSize:      d.MinSize,
		MaxSize:      d.MaxSize,
		ShiftFactor:  d.ShiftFactor,
		ScaleFactor:  d.ScaleFactor,
		IoUThreshold: d.IoUThreshold,
		MinQuality:   float32(d.MinQuality),
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./collage.yaml"
	}
	return filepath.Join(home, ".config", "collage-maker", "config.yaml")
}
