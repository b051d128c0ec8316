package client

import (
	"context"

	"github.com/menta2k/collage-maker/pkg/types"
)

// VisionClient is a vision model backend that can locate faces
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.FaceAnalysis, error)
}
