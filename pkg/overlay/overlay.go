// Package overlay draws caption text and the logo onto finished collages,
// picking black or white ink from the brightness of the area underneath.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Location is the corner text is anchored to
type Location string

const (
	BottomLeft  Location = "bottom-left"
	TopRight    Location = "top-right"
	BottomRight Location = "bottom-right"
)

const (
	DefaultFontSize = 30
	DefaultMargin   = 20
	DefaultLogo     = "HauteBook"
)

var (
	White = color.NRGBA{255, 255, 255, 255}
	Black = color.NRGBA{0, 0, 0, 255}
)

// ParseLocation accepts the corner names used in config and flags
func ParseLocation(s string) (Location, error) {
	switch Location(s) {
	case BottomLeft, TopRight, BottomRight:
		return Location(s), nil
	}
	return "", fmt.Errorf("unknown text location %q", s)
}

// Brightness is the perceived brightness of c on a 0..255 scale
func Brightness(c color.Color) int {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return (299*int(n.R) + 587*int(n.G) + 114*int(n.B)) / 1000
}

// IsLight reports whether c reads as a light background
func IsLight(c color.Color) bool {
	return Brightness(c) > 123
}

// ChooseColor returns white when dark pixels outnumber light ones inside
// rect, black otherwise.
func ChooseColor(img image.Image, rect image.Rectangle) color.NRGBA {
	r := rect.Add(img.Bounds().Min).Intersect(img.Bounds())
	dark, light := 0, 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if IsLight(img.At(x, y)) {
				light++
			} else {
				dark++
			}
		}
	}
	if dark > light {
		return White
	}
	return Black
}

// Drawer renders single-line text with Go Regular. It is safe for
// concurrent use; glyph rendering is serialized on the shared face.
type Drawer struct {
	mu     sync.Mutex
	face   font.Face
	margin int
}

// NewDrawer builds a drawer for the given point size (72 DPI)
func NewDrawer(size float64) (*Drawer, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return &Drawer{face: face, margin: DefaultMargin}, nil
}

// Close releases the font face
func (d *Drawer) Close() error {
	return d.face.Close()
}

// Measure returns the width and line height of text in pixels
func (d *Drawer) Measure(text string) (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measure(text)
}

func (d *Drawer) measure(text string) (int, int) {
	m := d.face.Metrics()
	return font.MeasureString(d.face, text).Ceil(), (m.Ascent + m.Descent).Ceil()
}

// textRect is where text of size w x h goes on a canvas of the given size
func (d *Drawer) textRect(bounds image.Rectangle, w, h int, at Location) image.Rectangle {
	W, H := bounds.Dx(), bounds.Dy()
	var p image.Point
	switch at {
	case BottomLeft:
		p = image.Pt(d.margin, H-h-d.margin)
	case TopRight:
		p = image.Pt(W-w-d.margin, d.margin)
	default:
		p = image.Pt(W-w-d.margin, H-h-d.margin)
	}
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(w, h))}
}

// sampleRect is the corner strip the ink colour is chosen from
func sampleRect(bounds image.Rectangle, w, h int, at Location) image.Rectangle {
	W, H := bounds.Dx(), bounds.Dy()
	switch at {
	case BottomLeft:
		return image.Rect(0, H-h, w, H)
	case TopRight:
		return image.Rect(W-w, 0, W, h)
	default:
		return image.Rect(W-w, H-h, W, H)
	}
}

// DrawText returns a copy of img with text drawn at the given corner.
// Empty text yields an unchanged copy.
func (d *Drawer) DrawText(img image.Image, text string, at Location) *image.NRGBA {
	dst := imaging.Clone(img)
	if text == "" {
		return dst
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	w, h := d.measure(text)
	ink := ChooseColor(dst, sampleRect(dst.Bounds(), w, h, at))
	r := d.textRect(dst.Bounds(), w, h, at)

	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: d.face,
		Dot:  fixed.P(r.Min.X, r.Min.Y+d.face.Metrics().Ascent.Ceil()),
	}
	dr.DrawString(text)
	return dst
}

// DrawLogo draws the logo text in the bottom-right corner
func (d *Drawer) DrawLogo(img image.Image, logo string) *image.NRGBA {
	return d.DrawText(img, logo, BottomRight)
}
