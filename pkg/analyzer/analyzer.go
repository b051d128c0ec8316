// Package analyzer inspects loaded photos before they enter the collage
// pools: size, aspect ratio and which pool an image belongs to.
package analyzer

import (
	"image"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// ImageAnalyzer validates and classifies input images
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	// MinImageSize is the smallest accepted width and height
	MinImageSize int
}

// DefaultMinImageSize rejects thumbnails too small to crop from
const DefaultMinImageSize = 32

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{config: Config{MinImageSize: DefaultMinImageSize}}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	AspectRatio float64    `json:"aspect_ratio"`
	Area        int        `json:"area"`
	Orientation types.Kind `json:"orientation"`
}

// Orientation is vertical for portrait images and horizontal otherwise.
// Square images count as horizontal.
func Orientation(width, height int) types.Kind {
	if width < height {
		return types.KindVertical
	}
	return types.KindHorizontal
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:       width,
		Height:      height,
		Area:        width * height,
		Orientation: Orientation(width, height),
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	if img == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return errors.New(errors.ErrCodeInvalidInput, "image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}

// Stats counts images per orientation
type Stats struct {
	Total      int `json:"total"`
	Horizontal int `json:"horizontal"`
	Vertical   int `json:"vertical"`
}

// Summarize tallies a batch of images
func (a *ImageAnalyzer) Summarize(imgs []image.Image) Stats {
	var s Stats
	for _, img := range imgs {
		s.Total++
		if a.GetImageInfo(img).Orientation == types.KindVertical {
			s.Vertical++
		} else {
			s.Horizontal++
		}
	}
	return s
}
