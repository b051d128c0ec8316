package processing

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/collage-maker/pkg/types"
)

// CreateDebugOverlay draws the detected face and the chosen crop window
// over a copy of img.
func CreateDebugOverlay(img image.Image, face types.FaceBox, window types.CropWindow, fallback bool) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()

	faceColor := color.NRGBA{0, 255, 0, 255}
	if fallback {
		faceColor = color.NRGBA{255, 0, 0, 255}
	}
	gold := color.NRGBA{255, 204, 0, 255}
	stroke := max(2, min(w, h)/250)

	drawRect(nrgba, face.Rect(), faceColor, stroke)
	drawRect(nrgba, window.Rect(), gold, stroke)

	cx, cy := face.X+face.W/2, face.Y+face.H/2
	cross := max(4, min(w, h)/100)
	drawHLine(nrgba, cy, cx-cross, cx+cross, faceColor)
	drawVLine(nrgba, cx, cy-cross, cy+cross, faceColor)

	return nrgba
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	if r.Empty() {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, 0), min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, 0), min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
