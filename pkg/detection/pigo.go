package detection

import (
	"context"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// PigoConfig tunes the cascade scan
type PigoConfig struct {
	CascadePath string
	MinSize     int
	// MaxSize of 0 means the shorter image side.
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinQuality   float32
}

// DefaultPigoConfig returns settings comparable to a frontal-face Haar
// cascade with a 90px minimum face.
func DefaultPigoConfig() PigoConfig {
	return PigoConfig{
		CascadePath:  "facefinder",
		MinSize:      90,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5.0,
	}
}

// PigoDetector finds faces with the pigo pixel-intensity cascade
type PigoDetector struct {
	classifier *pigo.Pigo
	config     PigoConfig
}

// NewPigoDetector loads the cascade file named in cfg
func NewPigoDetector(cfg PigoConfig) (*PigoDetector, error) {
	if cfg.CascadePath == "" {
		return nil, errors.New(errors.ErrCodeDetectorUnavailable, "no cascade file configured")
	}
	cascade, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDetectorUnavailable, err,
			"cascade file %s not readable (download it from https://github.com/esimov/pigo/raw/master/cascade/facefinder)", cfg.CascadePath)
	}
	return NewPigoDetectorFromBytes(cascade, cfg)
}

// NewPigoDetectorFromBytes unpacks an in-memory cascade
func NewPigoDetectorFromBytes(cascade []byte, cfg PigoConfig) (*PigoDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDetectorUnavailable, err, "failed to unpack cascade")
	}
	return &PigoDetector{classifier: classifier, config: cfg}, nil
}

// Detect runs the cascade over a grayscale copy of img
func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]types.FaceBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(img)
	cols, rows := gray.Bounds().Dx(), gray.Bounds().Dy()
	pixels := make([]uint8, cols*rows)
	for y := 0; y < rows; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < cols; x++ {
			pixels[y*cols+x] = row[x*4]
		}
	}

	maxSize := d.config.MaxSize
	if maxSize <= 0 {
		maxSize = min(cols, rows)
	}
	params := pigo.CascadeParams{
		MinSize:     d.config.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.config.ShiftFactor,
		ScaleFactor: d.config.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.config.IoUThreshold)

	return toFaceBoxes(dets, d.config.MinQuality), nil
}

// toFaceBoxes converts centre/scale detections into top-left boxes,
// dropping those under minQuality.
func toFaceBoxes(dets []pigo.Detection, minQuality float32) []types.FaceBox {
	boxes := make([]types.FaceBox, 0, len(dets))
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		boxes = append(boxes, types.FaceBox{
			X: det.Col - det.Scale/2,
			Y: det.Row - det.Scale/2,
			W: det.Scale,
			H: det.Scale,
		})
	}
	return boxes
}
