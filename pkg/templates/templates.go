// Package templates holds the fixed collage layouts as data and the code
// that fills them.
//
// A Template is a canvas plus a list of slots; every slot takes one image
// of a given kind, resized to the slot rectangle. Slots are pasted in order,
// so later slots cover earlier ones where they overlap. A Split mixes two
// images along a straight line instead of using slots.
package templates

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/overlay"
	"github.com/menta2k/collage-maker/pkg/types"
)

var white = color.NRGBA{255, 255, 255, 255}

// Slot is one image position on a template canvas
type Slot struct {
	Kind types.Kind
	Rect image.Rectangle
}

// Template is a fixed layout
type Template struct {
	Name       string
	Width      int
	Height     int
	Background color.NRGBA
	Slots      []Slot
	TextAt     overlay.Location
	Logo       bool
}

// Requires counts the images of each kind the template consumes
func (t Template) Requires() map[types.Kind]int {
	need := make(map[types.Kind]int)
	for _, s := range t.Slots {
		need[s.Kind]++
	}
	return need
}

func slot(kind types.Kind, x, y, w, h int) Slot {
	return Slot{Kind: kind, Rect: image.Rect(x, y, x+w, y+h)}
}

func hor(x, y, w, h int) Slot  { return slot(types.KindHorizontal, x, y, w, h) }
func ver(x, y, w, h int) Slot  { return slot(types.KindVertical, x, y, w, h) }
func hero(x, y, w, h int) Slot { return slot(types.KindHero, x, y, w, h) }

// layout builds a white template with bottom-left text and the logo
func layout(name string, w, h int, slots ...Slot) Template {
	return Template{
		Name:       name,
		Width:      w,
		Height:     h,
		Background: white,
		Slots:      slots,
		TextAt:     overlay.BottomLeft,
		Logo:       true,
	}
}

// Catalogue returns every fixed layout
func Catalogue() []Template {
	staggered := layout("four-vertical-staggered", 730, 1120,
		ver(10, 10, 350, 500), ver(370, 100, 350, 500), ver(10, 520, 350, 500), ver(370, 610, 350, 500))
	staggered.TextAt = overlay.TopRight

	mosaicLeft := layout("mosaic-left", 735, 1055,
		ver(5, 5, 400, 600), ver(330, 450, 400, 600), ver(420, 5, 300, 440), ver(15, 610, 300, 440))
	mosaicLeft.Logo = false

	mosaicRight := layout("mosaic-right", 735, 1055,
		ver(330, 5, 400, 600), ver(5, 450, 400, 600), ver(420, 610, 300, 440), ver(15, 5, 300, 440))
	mosaicRight.Logo = false

	return []Template{
		layout("two-horizontal", 790, 1085,
			hor(5, 5, 780, 535), hor(5, 545, 780, 535)),
		layout("three-horizontal-top", 815, 1145,
			hor(5, 5, 805, 530), ver(5, 540, 400, 600), ver(410, 540, 400, 600)),
		// the wide slot overhangs the canvas by 5px and is clipped
		layout("three-horizontal-top-flush", 800, 1130,
			hor(0, 0, 805, 530), ver(0, 530, 400, 600), ver(400, 530, 400, 600)),
		layout("three-horizontal-bottom", 815, 1145,
			hor(5, 610, 805, 530), ver(5, 5, 400, 600), ver(410, 5, 400, 600)),
		layout("three-horizontal-bottom-flush", 800, 1130,
			hor(0, 600, 800, 530), ver(0, 0, 400, 600), ver(400, 0, 400, 600)),
		layout("four-vertical-grid", 750, 1130,
			ver(10, 10, 360, 550), ver(380, 10, 360, 550), ver(10, 570, 360, 550), ver(380, 570, 360, 550)),
		staggered,
		layout("four-vertical-flush", 760, 1140,
			ver(0, 0, 400, 600), ver(400, 0, 400, 600), ver(0, 600, 400, 600), ver(400, 600, 400, 600)),
		mosaicLeft,
		mosaicRight,
		layout("portfolio", 1200, 1200,
			hero(0, 0, 1200, 600), ver(0, 600, 400, 600), ver(400, 600, 400, 600), ver(800, 600, 400, 600)),
	}
}

// Find looks a template up by name
func Find(name string) (Template, bool) {
	for _, t := range Catalogue() {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// Names lists the layout and split names
func Names() []string {
	var names []string
	for _, t := range Catalogue() {
		names = append(names, t.Name)
	}
	for _, s := range Splits() {
		names = append(names, s.Name)
	}
	return names
}

// Place resizes one image per slot and pastes them onto the template canvas.
// Images are taken from the pools in order, per kind.
func Place(t Template, pools *Pools) (*image.NRGBA, error) {
	if err := pools.Covers(t.Requires()); err != nil {
		return nil, fmt.Errorf("template %s: %w", t.Name, err)
	}

	canvas := imaging.New(t.Width, t.Height, t.Background)
	next := make(map[types.Kind]int)
	for _, s := range t.Slots {
		img := pools.Of(s.Kind)[next[s.Kind]]
		next[s.Kind]++
		fitted := imaging.Resize(img, s.Rect.Dx(), s.Rect.Dy(), imaging.Lanczos)
		canvas = imaging.Paste(canvas, fitted, s.Rect.Min)
	}
	return canvas, nil
}

// Pools groups prepared images by kind
type Pools struct {
	Horizontal []image.Image
	Vertical   []image.Image
	Hero       []image.Image
}

// Of returns the images of one kind
func (p *Pools) Of(kind types.Kind) []image.Image {
	switch kind {
	case types.KindHorizontal:
		return p.Horizontal
	case types.KindVertical:
		return p.Vertical
	case types.KindHero:
		return p.Hero
	}
	return nil
}

// Add appends img to the pool of kind
func (p *Pools) Add(kind types.Kind, img image.Image) {
	switch kind {
	case types.KindHorizontal:
		p.Horizontal = append(p.Horizontal, img)
	case types.KindVertical:
		p.Vertical = append(p.Vertical, img)
	case types.KindHero:
		p.Hero = append(p.Hero, img)
	}
}

// Covers reports an INSUFFICIENT_IMAGES error when a pool is short of need
func (p *Pools) Covers(need map[types.Kind]int) error {
	var short []string
	for _, kind := range []types.Kind{types.KindHorizontal, types.KindVertical, types.KindHero} {
		if have := len(p.Of(kind)); have < need[kind] {
			short = append(short, fmt.Sprintf("%s %d/%d", kind, have, need[kind]))
		}
	}
	if len(short) > 0 {
		return errors.New(errors.ErrCodeInsufficientImages, "not enough images: %s", strings.Join(short, ", "))
	}
	return nil
}

// Placer moves an image's face to one side of a split canvas
type Placer interface {
	ZonedPlacement(ctx context.Context, img image.Image, target types.Position) image.Image
}

// Split is a two-image composite divided by the line A*x + B*y = C.
// Pixels with A*x + B*y <= C come from the first image.
type Split struct {
	Name    string
	Width   int
	Height  int
	A, B, C int
	TextAt  overlay.Location
	Logo    bool
}

// First reports whether pixel (x, y) is taken from the first image
func (s Split) First(x, y int) bool {
	return s.A*x+s.B*y <= s.C
}

// Splits returns the diagonal composites
func Splits() []Split {
	return []Split{
		{Name: "split-slash", Width: 1200, Height: 800, A: 4, B: 1, C: 2800, TextAt: overlay.BottomLeft, Logo: true},
		{Name: "split-backslash", Width: 1200, Height: 800, A: 4, B: -1, C: 2000, TextAt: overlay.BottomLeft, Logo: true},
	}
}

// Compose resizes a and b to the split canvas, places a's face on the left
// and b's face on the right, then mixes them along the split line.
func Compose(ctx context.Context, s Split, a, b image.Image, placer Placer) (*image.NRGBA, error) {
	if a == nil || b == nil {
		return nil, errors.New(errors.ErrCodeInsufficientImages, "split %s needs two images", s.Name)
	}
	left := imaging.Clone(placer.ZonedPlacement(ctx, imaging.Resize(a, s.Width, s.Height, imaging.Lanczos), types.PositionLeft))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	right := imaging.Clone(placer.ZonedPlacement(ctx, imaging.Resize(b, s.Width, s.Height, imaging.Lanczos), types.PositionRight))

	canvas := imaging.New(s.Width, s.Height, white)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			src := right
			if s.First(x, y) {
				src = left
			}
			if !image.Pt(x, y).In(src.Bounds()) {
				continue
			}
			canvas.SetNRGBA(x, y, src.NRGBAAt(x, y))
		}
	}
	return canvas, nil
}
