// Package packing tiles images into a justified gallery: images are laid
// left to right into rows, and every row is then scaled so its width matches
// the canvas width.
//
// Packing and rendering are split so callers can inspect the partition
// before paying for resampling:
//
//	engine, _ := packing.New(packing.DefaultConfig())
//	layout, err := engine.Pack(images, 800, 300)
//	if err != nil {
//		return err
//	}
//	canvas, err := engine.Render(layout)
package packing

import (
	"image"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// Config holds the tunables of the row packer
type Config struct {
	Margin             int
	RowHeightDecrement int
	MinRowHeight       int
	// MaxIterations caps packing attempts; 0 leaves only the row height floor.
	MaxIterations int
	Background    color.NRGBA
}

// DefaultConfig returns the packer defaults
func DefaultConfig() Config {
	return Config{
		Margin:             2,
		RowHeightDecrement: 10,
		MinRowHeight:       20,
		MaxIterations:      0,
		Background:         color.NRGBA{35, 35, 35, 255},
	}
}

// Validate checks the config for values the packer cannot run with
func (c Config) Validate() error {
	if c.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "margin must not be negative, got %d", c.Margin)
	}
	if c.RowHeightDecrement < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "row height decrement must be positive, got %d", c.RowHeightDecrement)
	}
	if c.MinRowHeight < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "min row height must be positive, got %d", c.MinRowHeight)
	}
	if c.MaxIterations < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max iterations must not be negative, got %d", c.MaxIterations)
	}
	return nil
}

// Item is one image placed in a row at its packed size
type Item struct {
	Index int
	Image image.Image
	Size  types.Size
}

// Row is a sequence of images and the ratio of their accumulated width
// (margins included) to the canvas width.
type Row struct {
	Coefficient float64
	// Extent is the accumulated width the coefficient was derived from.
	Extent int
	Items  []Item
}

// Layout is an accepted partition of images into rows
type Layout struct {
	Width     int
	RowHeight int
	Margin    int
	Rows      []Row
	Attempts  int
}

// RowPixelHeight is floor(RowHeight / coefficient), kept in integers so
// the rendered rows and the canvas height agree exactly.
func (l *Layout) RowPixelHeight(r Row) int {
	if r.Extent <= 0 {
		return 0
	}
	return l.RowHeight * l.Width / r.Extent
}

// Height is the packed canvas height before the outer border
func (l *Layout) Height() int {
	total := 0
	for _, r := range l.Rows {
		if len(r.Items) == 0 {
			continue
		}
		total += l.RowPixelHeight(r) + l.Margin
	}
	return total
}

// Count returns the number of images across all rows
func (l *Layout) Count() int {
	n := 0
	for _, r := range l.Rows {
		n += len(r.Items)
	}
	return n
}

// Engine packs and renders justified layouts
type Engine struct {
	config Config
	logger *log.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for packing progress
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine after validating cfg
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{config: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// FitSize shrinks (w, h) to fit inside (maxW, maxH) keeping the aspect
// ratio. It never enlarges and never returns a side below 1.
func FitSize(w, h, maxW, maxH int) types.Size {
	if w > maxW {
		h = max(h*maxW/w, 1)
		w = maxW
	}
	if h > maxH {
		w = max(w*maxH/h, 1)
		h = maxH
	}
	return types.Size{W: w, H: h}
}

// Pack partitions images into rows of the given width. When a row ends up
// holding a single image the row height is lowered and packing restarts
// from the original sizes, until every row has at least two images or the
// whole set fits in one row.
func (e *Engine) Pack(images []image.Image, width, rowHeight int) (*Layout, error) {
	if len(images) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no images to pack")
	}
	if width <= 0 || rowHeight <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "width and row height must be positive, got %dx%d", width, rowHeight)
	}
	if rowHeight < e.config.MinRowHeight {
		return nil, errors.New(errors.ErrCodeInvalidInput, "row height %d is below the minimum %d", rowHeight, e.config.MinRowHeight)
	}

	sizes := make([]types.Size, len(images))
	for i, img := range images {
		if img == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "image %d is nil", i)
		}
		b := img.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "image %d has empty bounds %v", i, b)
		}
		sizes[i] = types.Size{W: b.Dx(), H: b.Dy()}
	}

	h := rowHeight
	attempts := 0
	for {
		attempts++
		rows := e.partition(images, sizes, width, h)
		if acceptable(rows) {
			e.logger.Debug("layout accepted", "rows", len(rows), "row_height", h, "attempts", attempts)
			return &Layout{
				Width:     width,
				RowHeight: h,
				Margin:    e.config.Margin,
				Rows:      rows,
				Attempts:  attempts,
			}, nil
		}

		e.logger.Debug("single image row, lowering row height", "row_height", h, "rows", len(rows))
		next := h - e.config.RowHeightDecrement
		if next < e.config.MinRowHeight || (e.config.MaxIterations > 0 && attempts >= e.config.MaxIterations) {
			return nil, errors.Wrap(errors.ErrCodeNonConvergence,
				&errors.NonConvergenceError{LastRowHeight: h, Attempts: attempts},
				"pack %d images at width %d", len(images), width)
		}
		h = next
	}
}

// partition runs one packing attempt at row height h
func (e *Engine) partition(images []image.Image, sizes []types.Size, width, h int) []Row {
	var rows []Row
	var row []Item
	x := 0
	for i, img := range images {
		size := FitSize(sizes[i].W, sizes[i].H, width, h)
		// the row is closed by the image after the one that overflowed it
		if x > width {
			rows = append(rows, newRow(row, x, width))
			row = nil
			x = 0
		}
		row = append(row, Item{Index: i, Image: img, Size: size})
		x += size.W + e.config.Margin
	}
	return append(rows, newRow(row, x, width))
}

func newRow(items []Item, extent, width int) Row {
	return Row{
		Coefficient: float64(extent) / float64(width),
		Extent:      extent,
		Items:       items,
	}
}

func acceptable(rows []Row) bool {
	if len(rows) <= 1 {
		return true
	}
	for _, r := range rows {
		if len(r.Items) <= 1 {
			return false
		}
	}
	return true
}

// Render draws a layout onto a background canvas and wraps it in a
// Margin-pixel border on every side.
func (e *Engine) Render(layout *Layout) (*image.NRGBA, error) {
	if layout == nil {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no layout to render")
	}
	height := layout.Height()
	if height <= 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "layout has zero height")
	}

	packed := imaging.New(layout.Width, height, e.config.Background)
	y := 0
	for _, r := range layout.Rows {
		if len(r.Items) == 0 {
			continue
		}
		th := layout.RowPixelHeight(r)
		x := 0
		for _, it := range r.Items {
			size := renderSize(it.Size, th, layout.Width*layout.Width/r.Extent)
			if x+size.W > layout.Width {
				if layout.Width-x <= 0 {
					e.logger.Debug("no room left in row, skipping image", "index", it.Index)
					continue
				}
				size.W = layout.Width - x
			}
			scaled := imaging.Resize(it.Image, size.W, size.H, imaging.Lanczos)
			packed = imaging.Paste(packed, scaled, image.Pt(x, y))
			x += size.W + layout.Margin
		}
		y += th + layout.Margin
	}

	m := layout.Margin
	out := imaging.New(layout.Width+2*m, height+2*m, e.config.Background)
	return imaging.Paste(out, packed, image.Pt(m, m)), nil
}

// renderSize scales a packed size to the row height th. Images shorter than
// the row are enlarged, others are shrunk to fit (maxW, th).
func renderSize(packed types.Size, th, maxW int) types.Size {
	if th > packed.H {
		return types.Size{W: max(packed.W*th/packed.H, 1), H: th}
	}
	return FitSize(packed.W, packed.H, max(maxW, 1), max(th, 1))
}

// Justify packs and renders in one call
func (e *Engine) Justify(images []image.Image, width, rowHeight int) (*image.NRGBA, *Layout, error) {
	layout, err := e.Pack(images, width, rowHeight)
	if err != nil {
		return nil, nil, err
	}
	canvas, err := e.Render(layout)
	if err != nil {
		return nil, nil, err
	}
	e.logger.Info("justified collage rendered",
		"images", layout.Count(), "rows", len(layout.Rows),
		"size", canvas.Bounds().Size(), "row_height", layout.RowHeight)
	return canvas, layout, nil
}

var (
	// SmallSetPresets are tried for sets of fewer than six images
	SmallSetPresets = []types.Preset{{Width: 1200, RowHeight: 450}, {Width: 1150, RowHeight: 375}, {Width: 1200, RowHeight: 425}}
	// LargeSetPresets are tried for larger sets
	LargeSetPresets = []types.Preset{{Width: 800, RowHeight: 300}, {Width: 1000, RowHeight: 250}, {Width: 800, RowHeight: 350}}
)

// PresetsFor picks the preset set for n images
func PresetsFor(n int) []types.Preset {
	if n < 6 {
		return SmallSetPresets
	}
	return LargeSetPresets
}
