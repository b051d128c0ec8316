// Package detection locates faces in images.
//
// Two backends implement FaceDetector: PigoDetector runs a pixel-intensity
// cascade locally, and VisionDetector asks a vision model served by Ollama
// or llama.cpp. Callers that have neither use Unavailable, which always
// reports ErrCodeDetectorUnavailable so the crop engine falls back to its
// fixed anchor.
package detection

import (
	"context"
	"image"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// FaceDetector returns face boxes in source-pixel coordinates, in the
// detector's own order.
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]types.FaceBox, error)
}

// Func adapts a plain function to FaceDetector
type Func func(ctx context.Context, img image.Image) ([]types.FaceBox, error)

func (f Func) Detect(ctx context.Context, img image.Image) ([]types.FaceBox, error) {
	return f(ctx, img)
}

// Unavailable is a detector that never finds anything
type Unavailable struct {
	Reason string
}

func (u Unavailable) Detect(context.Context, image.Image) ([]types.FaceBox, error) {
	reason := u.Reason
	if reason == "" {
		reason = "no face detector configured"
	}
	return nil, errors.New(errors.ErrCodeDetectorUnavailable, "%s", reason)
}
