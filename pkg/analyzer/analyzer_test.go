package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}

	return img
}

func TestNew(t *testing.T) {
	a := New()
	if a == nil {
		t.Fatal("New() returned nil")
	}

	if a.config.MinImageSize != DefaultMinImageSize {
		t.Errorf("Expected min size %d, got %d", DefaultMinImageSize, a.config.MinImageSize)
	}
}

func TestGetImageInfo(t *testing.T) {
	a := New()

	tests := []struct {
		w, h        int
		ratio       float64
		orientation types.Kind
	}{
		{400, 300, 4.0 / 3.0, types.KindHorizontal},
		{300, 400, 0.75, types.KindVertical},
		{200, 200, 1.0, types.KindHorizontal},
	}

	for _, tt := range tests {
		info := a.GetImageInfo(createTestImage(tt.w, tt.h))
		if info.Width != tt.w || info.Height != tt.h {
			t.Errorf("Expected %dx%d, got %dx%d", tt.w, tt.h, info.Width, info.Height)
		}
		if math.Abs(info.AspectRatio-tt.ratio) > 0.001 {
			t.Errorf("%dx%d: expected aspect ratio %.3f, got %.3f", tt.w, tt.h, tt.ratio, info.AspectRatio)
		}
		if info.Area != tt.w*tt.h {
			t.Errorf("%dx%d: expected area %d, got %d", tt.w, tt.h, tt.w*tt.h, info.Area)
		}
		if info.Orientation != tt.orientation {
			t.Errorf("%dx%d: expected %s, got %s", tt.w, tt.h, tt.orientation, info.Orientation)
		}
	}
}

func TestValidateImage(t *testing.T) {
	a := NewWithConfig(Config{MinImageSize: 100})

	if err := a.ValidateImage(createTestImage(200, 150)); err != nil {
		t.Errorf("Valid image failed validation: %v", err)
	}

	err := a.ValidateImage(createTestImage(50, 150))
	if err == nil {
		t.Fatal("Small image passed validation")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Expected INVALID_INPUT, got %v", errors.GetCode(err))
	}

	if err := a.ValidateImage(nil); err == nil {
		t.Error("nil image passed validation")
	}
}

func TestSummarize(t *testing.T) {
	a := New()
	stats := a.Summarize([]image.Image{
		createTestImage(400, 300),
		createTestImage(300, 400),
		createTestImage(300, 400),
	})

	if stats != (Stats{Total: 3, Horizontal: 1, Vertical: 2}) {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func BenchmarkGetImageInfo(b *testing.B) {
	a := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.GetImageInfo(img)
	}
}
