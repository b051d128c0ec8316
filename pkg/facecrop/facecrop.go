// Package facecrop cuts fixed-size windows out of photos so that the
// dominant face stays in frame, and shifts photos sideways so a face lands
// on a requested half of a split composite.
//
// The dominant face is the widest valid box the detector reports. When the
// detector finds nothing, or is not available at all, a fixed anchor box is
// used instead so a crop is always produced.
package facecrop

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/menta2k/collage-maker/pkg/detection"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// DefaultAnchor stands in for a face when none is found
var DefaultAnchor = types.FaceBox{X: 200, Y: 0, W: 150, H: 150}

// Config holds the crop engine settings
type Config struct {
	Anchor types.FaceBox
	Zones  ZonePoints
	// Placement canvas for ZonedPlacement
	CanvasWidth  int
	CanvasHeight int
	Background   color.NRGBA
	// Padding fills shifted columns that fall outside the source
	Padding color.NRGBA
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		Anchor:       DefaultAnchor,
		Zones:        DefaultZonePoints(),
		CanvasWidth:  1200,
		CanvasHeight: 800,
		Background:   color.NRGBA{255, 255, 255, 255},
		Padding:      color.NRGBA{0, 0, 0, 255},
	}
}

// Result describes how a crop was chosen
type Result struct {
	Window   types.CropWindow `json:"window"`
	Face     types.FaceBox    `json:"face"`
	Fallback bool             `json:"fallback"`
}

// Engine crops and places images around faces
type Engine struct {
	detector detection.FaceDetector
	config   Config
	logger   *log.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. A nil detector behaves like detection.Unavailable.
func New(detector detection.FaceDetector, cfg Config, opts ...Option) *Engine {
	if detector == nil {
		detector = detection.Unavailable{}
	}
	e := &Engine{detector: detector, config: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DominantFace returns the widest valid box. Ties keep the first one in
// detector order; malformed boxes are ignored.
func DominantFace(boxes []types.FaceBox) (types.FaceBox, bool) {
	var best types.FaceBox
	found := false
	for _, b := range boxes {
		if !b.Valid() {
			continue
		}
		if !found || b.W > best.W {
			best = b
			found = true
		}
	}
	return best, found
}

// DetectDominantFace runs the detector and picks the dominant face.
// Detector failures count as "no face".
func (e *Engine) DetectDominantFace(ctx context.Context, img image.Image) (types.FaceBox, bool) {
	boxes, err := e.detector.Detect(ctx, img)
	if err != nil {
		e.logger.Debug("face detection failed, using anchor", "err", err)
		return types.FaceBox{}, false
	}
	return DominantFace(boxes)
}

// ComputeCropWindow centres an outW x outH window on face and slides it
// back inside the image where it would cross an edge.
func ComputeCropWindow(imgW, imgH int, face types.FaceBox, outW, outH int) (types.CropWindow, error) {
	if outW <= 0 || outH <= 0 {
		return types.CropWindow{}, errors.New(errors.ErrCodeInvalidCropBounds, "output size %dx%d must be positive", outW, outH)
	}
	if imgW < outW || imgH < outH {
		return types.CropWindow{}, errors.New(errors.ErrCodeInvalidCropBounds,
			"image %dx%d is smaller than output %dx%d", imgW, imgH, outW, outH)
	}
	return types.CropWindow{
		X1:   clampStart(face.X-(outW-face.W)/2, outW, imgW),
		Y1:   clampStart(face.Y-(outH-face.H)/2, outH, imgH),
		OutW: outW,
		OutH: outH,
	}, nil
}

func clampStart(start, span, limit int) int {
	if start < 0 {
		return 0
	}
	if start+span > limit {
		return limit - span
	}
	return start
}

// Crop extracts window from img
func Crop(img image.Image, window types.CropWindow) *image.NRGBA {
	r := window.Rect().Add(img.Bounds().Min)
	return imaging.Crop(img, r)
}

// Cover upscales img just enough that both sides reach outW x outH.
// Images that already cover the size are returned unchanged.
func Cover(img image.Image, outW, outH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || (w >= outW && h >= outH) {
		return img
	}
	scale := math.Max(float64(outW)/float64(w), float64(outH)/float64(h))
	nw := max(int(math.Ceil(float64(w)*scale)), outW)
	nh := max(int(math.Ceil(float64(h)*scale)), outH)
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// CropAroundFace crops outW x outH around the dominant face, or around the
// anchor when there is none. img must be at least outW x outH.
func (e *Engine) CropAroundFace(ctx context.Context, img image.Image, outW, outH int) (*image.NRGBA, Result, error) {
	face, ok := e.DetectDominantFace(ctx, img)
	if !ok {
		face = e.config.Anchor
	}
	b := img.Bounds()
	window, err := ComputeCropWindow(b.Dx(), b.Dy(), face, outW, outH)
	if err != nil {
		return nil, Result{}, err
	}
	return Crop(img, window), Result{Window: window, Face: face, Fallback: !ok}, nil
}

// FaceCrop covers img to the output size first, so any image can be cropped
func (e *Engine) FaceCrop(ctx context.Context, img image.Image, outW, outH int) (*image.NRGBA, Result, error) {
	return e.CropAroundFace(ctx, Cover(img, outW, outH), outW, outH)
}
