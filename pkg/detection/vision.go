package detection

import (
	"context"
	"image"

	"github.com/charmbracelet/log"

	"github.com/menta2k/collage-maker/pkg/client"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/processing"
	"github.com/menta2k/collage-maker/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// FacePrompt asks the model for every visible human face
const FacePrompt = `You are a face locator.

Return JSON only:
{
  "faces": [
    {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  ],
  "description": "short neutral sentence (≤ 15 words)"
}

HARD RULES
- One entry per visible human face, largest first.
- All coordinates are normalized to [0,1] (NOT pixels); x,y is the top-left corner.
- Boxes cover the face from forehead to chin, not the whole head or body.
- If there are no faces, return {"faces": [], "description": "no faces"}.
- Do not guess identities.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// VisionDetector locates faces by asking a vision model
type VisionDetector struct {
	client    client.VisionClient
	processor *processing.Processor
	model     string
	prompt    string
	maxDim    int
	logger    *log.Logger
}

// NewVisionDetector creates a detector backed by a vision client
func NewVisionDetector(c client.VisionClient, model string, logger *log.Logger) *VisionDetector {
	if logger == nil {
		logger = log.Default()
	}
	return &VisionDetector{
		client:    c,
		processor: processing.NewProcessor(),
		model:     model,
		prompt:    FacePrompt,
		maxDim:    768,
		logger:    logger,
	}
}

// WithPrompt replaces the face prompt
func (d *VisionDetector) WithPrompt(prompt string) *VisionDetector {
	d.prompt = prompt
	return d
}

// Detect sends a downscaled copy of img to the model and maps the
// normalized boxes back to img's pixel grid.
func (d *VisionDetector) Detect(ctx context.Context, img image.Image) ([]types.FaceBox, error) {
	b64, err := d.processor.PrepareImageForModel(img, "jpg", d.maxDim, 85)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode image for model")
	}

	analysis, err := d.client.LocateFaces(ctx, d.model, d.prompt, b64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDetectorUnavailable, err, "vision model %s", d.model)
	}
	d.logger.Debug("vision model reply", "model", d.model, "faces", len(analysis.Faces), "description", analysis.Description)

	b := img.Bounds()
	boxes := make([]types.FaceBox, 0, len(analysis.Faces))
	for _, box := range analysis.Faces {
		boxes = append(boxes, toPixels(normalizeBox(box), b.Dx(), b.Dy()))
	}
	return boxes, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *VisionDetector) TestVision(ctx context.Context, img image.Image) (string, error) {
	b64, err := d.processor.PrepareImageForModel(img, "jpg", d.maxDim, 85)
	if err != nil {
		return "", err
	}
	return d.client.SimpleQuery(ctx, d.model, SimpleTestPrompt, b64)
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clips a model box to the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

func toPixels(b types.Box, w, h int) types.FaceBox {
	return types.FaceBox{
		X: int(b.X*float64(w) + 0.5),
		Y: int(b.Y*float64(h) + 0.5),
		W: int(b.W*float64(w) + 0.5),
		H: int(b.H*float64(h) + 0.5),
	}
}
