package facecrop

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/collage-maker/pkg/types"
)

// Column offsets of the sideways shift, relative to the face's left edge
const (
	leftShiftBefore  = 200
	rightShiftBefore = 300
	rightShiftAfter  = 400
	rightShiftPasteX = 500
)

// ZonePoints are the reference points faces are compared against
type ZonePoints struct {
	P1, P2, P3, P4 image.Point
	// Lexicographic compares differences as (x, y) tuples instead of
	// requiring both components to be positive.
	Lexicographic bool
}

// DefaultZonePoints returns the reference points for a 1200x800 frame
func DefaultZonePoints() ZonePoints {
	return ZonePoints{
		P1: image.Pt(500, 600),
		P2: image.Pt(500, 200),
		P3: image.Pt(700, 600),
		P4: image.Pt(700, 200),
	}
}

// Classify returns the zone of a face box
func (z ZonePoints) Classify(face types.FaceBox) types.Zone {
	switch {
	case z.positive(z.P1.Sub(face.TopRight())) && z.positive(z.P2.Sub(face.BottomRight())):
		return types.ZoneLeft
	case z.positive(face.BottomLeft().Sub(z.P3)) && z.positive(face.TopLeft().Sub(z.P4)):
		return types.ZoneRight
	default:
		return types.ZoneMiddle
	}
}

func (z ZonePoints) positive(d image.Point) bool {
	if z.Lexicographic {
		return d.X > 0 || (d.X == 0 && d.Y > 0)
	}
	return d.X > 0 && d.Y > 0
}

// ZoneOf classifies face with the engine's reference points
func (e *Engine) ZoneOf(face types.FaceBox) types.Zone {
	return e.config.Zones.Classify(face)
}

// ZonedPlacement shifts img sideways on a fixed canvas so its dominant face
// sits on the target side. Images without a face, or whose face is already
// on that side, are returned unchanged. Canvas areas not covered by the
// source keep the background colour.
func (e *Engine) ZonedPlacement(ctx context.Context, img image.Image, target types.Position) image.Image {
	face, ok := e.DetectDominantFace(ctx, img)
	if !ok {
		e.logger.Debug("no face found, placement unchanged", "target", target)
		return img
	}

	zone := e.ZoneOf(face)
	switch {
	case target == types.PositionRight && zone != types.ZoneRight:
		return e.shift(img, face.X-rightShiftBefore, face.X+rightShiftAfter, rightShiftPasteX)
	case target == types.PositionLeft && zone != types.ZoneLeft:
		return e.shift(img, face.X-leftShiftBefore, img.Bounds().Dx(), 0)
	default:
		return img
	}
}

// shift copies source columns [x0, x1) at full height onto a new canvas
// with column x0 at canvas column pasteX. Requested columns outside the
// source are filled with the padding colour, the rest of the canvas keeps
// the background.
func (e *Engine) shift(img image.Image, x0, x1, pasteX int) *image.NRGBA {
	canvas := imaging.New(e.config.CanvasWidth, e.config.CanvasHeight, e.config.Background)

	b := img.Bounds()
	if x1 > x0 {
		canvas = imaging.Paste(canvas, imaging.New(x1-x0, b.Dy(), e.config.Padding), image.Pt(pasteX, 0))
	}
	cols := image.Rect(x0, 0, x1, b.Dy()).Intersect(image.Rect(0, 0, b.Dx(), b.Dy()))
	if cols.Empty() {
		return canvas
	}
	strip := imaging.Crop(img, cols.Add(b.Min))
	return imaging.Paste(canvas, strip, image.Pt(pasteX+cols.Min.X-x0, 0))
}
