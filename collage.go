// Package collage builds photo collages from a folder of pictures.
//
// A Maker ties the engines together: photos are loaded and oriented,
// sorted into horizontal and vertical pools with face-aware crops, laid out
// on the fixed templates and on justified rows, captioned and written out.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		collage "github.com/menta2k/collage-maker"
//	)
//
//	func main() {
//		maker, err := collage.New(collage.DefaultOptions())
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer maker.Close()
//
//		report, err := maker.Run(context.Background(), "./photos", "./output")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%d collages written\n", len(report.Outputs))
//	}
//
// The package consists of these components:
//
// 1. Packing (pkg/packing): justified row layout
// 2. Face crop (pkg/facecrop): face-centred crops and sideways placement
// 3. Templates (pkg/templates): fixed layouts and diagonal splits
// 4. Overlay (pkg/overlay): caption and logo text
// 5. Detection (pkg/detection): pigo cascade or vision model face finders
package collage

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/collage-maker/internal/utils"
	"github.com/menta2k/collage-maker/pkg/analyzer"
	"github.com/menta2k/collage-maker/pkg/detection"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/facecrop"
	"github.com/menta2k/collage-maker/pkg/overlay"
	"github.com/menta2k/collage-maker/pkg/packing"
	"github.com/menta2k/collage-maker/pkg/processing"
	"github.com/menta2k/collage-maker/pkg/templates"
	"github.com/menta2k/collage-maker/pkg/types"
)

// Version of the collage maker
const Version = "1.0.0"

// Options configures a Maker
type Options struct {
	Packing  packing.Config
	Face     facecrop.Config
	Detector detection.FaceDetector
	// Presets overrides the size dependent justified presets when set
	Presets []types.Preset

	HorizontalSize types.Size
	VerticalSize   types.Size
	HeroSize       types.Size

	Extensions   []string
	MaxDimension int
	MinDimension int

	Workers int
	// Seed 0 seeds from the clock
	Seed    uint64
	Shuffle bool

	Text     string
	Logo     string
	FontSize float64

	Format   string
	Quality  int
	Lossless bool
	Prefix   string

	Logger *log.Logger
}

// DefaultOptions returns options matching the stock configuration
func DefaultOptions() Options {
	return Options{
		Packing:        packing.DefaultConfig(),
		Face:           facecrop.DefaultConfig(),
		HorizontalSize: types.Size{W: 900, H: 600},
		VerticalSize:   types.Size{W: 600, H: 900},
		HeroSize:       types.Size{W: 900, H: 450},
		Extensions:     utils.DefaultImageExtensions,
		MaxDimension:   1200,
		MinDimension:   analyzer.DefaultMinImageSize,
		Workers:        runtime.NumCPU(),
		Shuffle:        true,
		Logo:           overlay.DefaultLogo,
		FontSize:       overlay.DefaultFontSize,
		Format:         "jpg",
		Quality:        90,
		Prefix:         "collage",
	}
}

// Maker runs the collage pipeline
type Maker struct {
	opts      Options
	packer    *packing.Engine
	cropper   *facecrop.Engine
	analyzer  *analyzer.ImageAnalyzer
	processor *processing.Processor
	drawer    *overlay.Drawer
	picker    *templates.Picker
	logger    *log.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// New creates a Maker from opts
func New(opts Options) (*Maker, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	format, err := processing.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	packer, err := packing.New(opts.Packing, packing.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	drawer, err := overlay.NewDrawer(opts.FontSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load overlay font")
	}

	picker := templates.NewOrderedPicker()
	if opts.Shuffle {
		picker = templates.NewPicker(opts.Seed)
	}

	return &Maker{
		opts:      opts,
		packer:    packer,
		cropper:   facecrop.New(opts.Detector, opts.Face, facecrop.WithLogger(opts.Logger)),
		analyzer:  analyzer.NewWithConfig(analyzer.Config{MinImageSize: opts.MinDimension}),
		processor: processing.NewProcessor(),
		drawer:    drawer,
		picker:    picker,
		logger:    opts.Logger,
		now:       time.Now,
		newID:     uuid.New,
	}, nil
}

// Close releases the overlay font
func (m *Maker) Close() error {
	return m.drawer.Close()
}

// Options returns the effective options
func (m *Maker) Options() Options {
	return m.opts
}

// Processor exposes the image loader and encoder
func (m *Maker) Processor() *processing.Processor {
	return m.processor
}

// Prepare sorts images into the template pools. Portrait images join the
// vertical pool as they are and add a face crop to the horizontal pool;
// landscape images do the opposite. The first image also yields the hero
// crop. Pool order follows input order.
func (m *Maker) Prepare(ctx context.Context, images []image.Image) (*templates.Pools, error) {
	if len(images) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no images to prepare")
	}

	type prepared struct {
		kind  types.Kind
		own   image.Image
		other image.Image
		hero  image.Image
	}
	results := make([]prepared, len(images))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img = processing.Thumbnail(img, m.opts.MaxDimension, m.opts.MaxDimension)
			b := img.Bounds()
			kind := analyzer.Orientation(b.Dx(), b.Dy())

			size := m.opts.VerticalSize
			if kind == types.KindVertical {
				size = m.opts.HorizontalSize
			}
			crop, _, err := m.cropper.FaceCrop(ctx, img, size.W, size.H)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			p := prepared{kind: kind, own: img, other: crop}

			if i == 0 {
				hero, _, err := m.cropper.FaceCrop(ctx, img, m.opts.HeroSize.W, m.opts.HeroSize.H)
				if err != nil {
					return fmt.Errorf("hero image: %w", err)
				}
				p.hero = hero
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pools := &templates.Pools{}
	for _, p := range results {
		pools.Add(p.kind, p.own)
		if p.kind == types.KindVertical {
			pools.Add(types.KindHorizontal, p.other)
		} else {
			pools.Add(types.KindVertical, p.other)
		}
		if p.hero != nil {
			pools.Add(types.KindHero, p.hero)
		}
	}
	m.logger.Debug("pools prepared",
		"horizontal", len(pools.Horizontal), "vertical", len(pools.Vertical), "hero", len(pools.Hero))
	return pools, nil
}

// Presets returns the justified targets for a batch of n images
func (m *Maker) Presets(n int) []types.Preset {
	if len(m.opts.Presets) > 0 {
		return m.opts.Presets
	}
	return packing.PresetsFor(n)
}

// Shuffle reorders images in place with the seeded picker. It does
// nothing when shuffling is off.
func (m *Maker) Shuffle(images []image.Image) {
	m.picker.Shuffle(images)
}

// Justify packs images into rows for preset and renders the collage
func (m *Maker) Justify(images []image.Image, preset types.Preset) (*image.NRGBA, *packing.Layout, error) {
	return m.packer.Justify(images, preset.Width, preset.RowHeight)
}

// Crop cuts a size window around the dominant face of img
func (m *Maker) Crop(ctx context.Context, img image.Image, size types.Size) (*image.NRGBA, facecrop.Result, error) {
	return m.cropper.FaceCrop(ctx, img, size.W, size.H)
}

// Collage is a rendered layout waiting for its caption
type Collage struct {
	Name   string
	Image  *image.NRGBA
	TextAt overlay.Location
	Logo   bool
}

// Skipped records an input or layout left out of a run
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Templates renders every fixed layout and split the pools can fill.
// Layouts short of images are skipped and reported.
func (m *Maker) Templates(ctx context.Context, pools *templates.Pools) ([]Collage, []Skipped, error) {
	var out []Collage
	var skipped []Skipped

	skip := func(name string, err error) {
		m.logger.Warn("layout skipped", "layout", name, "reason", errors.UserMessage(err))
		skipped = append(skipped, Skipped{Name: name, Reason: errors.UserMessage(err)})
	}

	for _, t := range templates.Catalogue() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		picked, err := m.picker.Pick(pools, t.Requires())
		if err != nil {
			skip(t.Name, err)
			continue
		}
		img, err := templates.Place(t, picked)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, Collage{Name: t.Name, Image: img, TextAt: t.TextAt, Logo: t.Logo})
	}

	for _, s := range templates.Splits() {
		a, b, err := m.picker.Pair(pools, types.KindHorizontal)
		if err != nil {
			skip(s.Name, err)
			continue
		}
		img, err := templates.Compose(ctx, s, a, b, m.cropper)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, Collage{Name: s.Name, Image: img, TextAt: s.TextAt, Logo: s.Logo})
	}
	return out, skipped, nil
}

// Decorate draws the caption at the given corner and the logo when asked.
// An empty location or caption skips the text.
func (m *Maker) Decorate(img image.Image, at overlay.Location, logo bool) *image.NRGBA {
	text := m.opts.Text
	if at == "" {
		text = ""
	}
	out := m.drawer.DrawText(img, text, at)
	if logo && m.opts.Logo != "" {
		out = m.drawer.DrawLogo(out, m.opts.Logo)
	}
	return out
}

// Output is one written collage
type Output struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Failure is a collage that could not be produced
type Failure struct {
	Name    string      `json:"name"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Report summarizes a Run
type Report struct {
	Inputs   int            `json:"inputs"`
	Stats    analyzer.Stats `json:"stats"`
	Seed     uint64         `json:"seed"`
	Outputs  []Output       `json:"outputs"`
	Skipped  []Skipped      `json:"skipped,omitempty"`
	Failures []Failure      `json:"failures,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Run makes every collage from the images in inputDir and writes them to
// outputDir. Layout failures are recorded in the report; the returned error
// is reserved for empty input, I/O failures and cancellation.
func (m *Maker) Run(ctx context.Context, inputDir, outputDir string) (*Report, error) {
	start := time.Now()
	report := &Report{Seed: m.opts.Seed}

	files, err := utils.ListImageFiles(inputDir, m.opts.Extensions...)
	if err != nil {
		return nil, err
	}
	report.Inputs = len(files)

	images, skipped, err := m.Load(ctx, files)
	if err != nil {
		return nil, err
	}
	report.Skipped = append(report.Skipped, skipped...)
	if len(images) == 0 {
		return report, errors.New(errors.ErrCodeEmptyInput, "no usable images in %s", inputDir)
	}
	m.Shuffle(images)
	report.Stats = m.analyzer.Summarize(images)

	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	pools, err := m.Prepare(ctx, images)
	if err != nil {
		return nil, err
	}
	collages, skipped, err := m.Templates(ctx, pools)
	if err != nil {
		return nil, err
	}
	report.Skipped = append(report.Skipped, skipped...)

	for _, c := range collages {
		out, err := m.Save(m.Decorate(c.Image, c.TextAt, c.Logo), c.Name, outputDir)
		if err != nil {
			return nil, err
		}
		report.Outputs = append(report.Outputs, out)
	}

	for _, preset := range m.Presets(len(images)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("justified-%dx%d", preset.Width, preset.RowHeight)
		img, _, err := m.Justify(images, preset)
		if err != nil {
			m.logger.Warn("justified collage failed", "preset", name, "err", err)
			report.Failures = append(report.Failures, Failure{
				Name:    name,
				Code:    errors.GetCode(err),
				Message: errors.UserMessage(err),
			})
			continue
		}
		out, err := m.Save(m.Decorate(img, "", true), name, outputDir)
		if err != nil {
			return nil, err
		}
		report.Outputs = append(report.Outputs, out)
	}

	report.Duration = time.Since(start)
	m.logger.Info("run finished",
		"outputs", len(report.Outputs), "skipped", len(report.Skipped),
		"failures", len(report.Failures), "took", report.Duration.Round(time.Millisecond))
	return report, nil
}

// Load decodes and orients files concurrently. Unreadable or undersized
// files are skipped; the order of the remaining images follows files.
func (m *Maker) Load(ctx context.Context, files []string) ([]image.Image, []Skipped, error) {
	loaded := make([]image.Image, len(files))
	reasons := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := m.processor.LoadOriented(path)
			if err != nil {
				reasons[i] = err.Error()
				return nil
			}
			if err := m.analyzer.ValidateImage(img); err != nil {
				reasons[i] = errors.UserMessage(err)
				return nil
			}
			loaded[i] = processing.Thumbnail(img, m.opts.MaxDimension, m.opts.MaxDimension)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var images []image.Image
	var skipped []Skipped
	for i, img := range loaded {
		if img == nil {
			m.logger.Warn("input skipped", "file", files[i], "reason", reasons[i])
			skipped = append(skipped, Skipped{Name: files[i], Reason: reasons[i]})
			continue
		}
		images = append(images, img)
	}
	m.logger.Info("images loaded", "count", len(images), "skipped", len(skipped))
	return images, skipped, nil
}

// Save writes img to dir under a timestamped unique name
func (m *Maker) Save(img image.Image, name, dir string) (Output, error) {
	path := utils.OutputFilename(dir, m.opts.Prefix, m.opts.Format, m.now(), m.newID())
	if err := m.processor.SaveImage(img, path, m.opts.Format, m.opts.Quality, m.opts.Lossless); err != nil {
		return Output{}, fmt.Errorf("save %s: %w", name, err)
	}
	b := img.Bounds()
	m.logger.Info("collage written", "layout", name, "path", path, "size", b.Size())
	return Output{Name: name, Path: path, Width: b.Dx(), Height: b.Dy()}, nil
}
