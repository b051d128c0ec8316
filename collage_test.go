package collage

import (
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

var (
	red  = color.NRGBA{220, 30, 30, 255}
	blue = color.NRGBA{30, 30, 220, 255}
)

// createTestImage creates a solid test image
func createTestImage(width, height int, c color.NRGBA) image.Image {
	return imaging.New(width, height, c)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Shuffle = false
	opts.Workers = 2
	opts.Logger = log.New(io.Discard)
	return opts
}

func newTestMaker(t *testing.T, opts Options) *Maker {
	t.Helper()
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func writeImage(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	return len(entries)
}

func TestNew(t *testing.T) {
	m := newTestMaker(t, testOptions())

	if m.packer == nil || m.cropper == nil || m.drawer == nil || m.picker == nil {
		t.Error("New() left a component nil")
	}
	if m.Options().Seed == 0 {
		t.Error("expected a clock seed when none is given")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := testOptions()
	opts.Format = "gif"
	if _, err := New(opts); !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Errorf("expected UNSUPPORTED_FORMAT, got %v", err)
	}

	opts = testOptions()
	opts.Packing.RowHeightDecrement = 0
	if _, err := New(opts); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestPrepare(t *testing.T) {
	m := newTestMaker(t, testOptions())

	pools, err := m.Prepare(context.Background(), []image.Image{
		createTestImage(400, 300, red),
		createTestImage(300, 400, blue),
	})
	if err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}

	if len(pools.Horizontal) != 2 || len(pools.Vertical) != 2 || len(pools.Hero) != 1 {
		t.Fatalf("unexpected pool sizes: %d horizontal, %d vertical, %d hero",
			len(pools.Horizontal), len(pools.Vertical), len(pools.Hero))
	}

	checks := []struct {
		name string
		img  image.Image
		size image.Point
		c    color.NRGBA
	}{
		{"landscape as is", pools.Horizontal[0], image.Pt(400, 300), red},
		{"portrait face crop", pools.Horizontal[1], image.Pt(900, 600), blue},
		{"landscape face crop", pools.Vertical[0], image.Pt(600, 900), red},
		{"portrait as is", pools.Vertical[1], image.Pt(300, 400), blue},
		{"hero", pools.Hero[0], image.Pt(900, 450), red},
	}
	for _, c := range checks {
		if got := c.img.Bounds().Size(); got != c.size {
			t.Errorf("%s: expected size %v, got %v", c.name, c.size, got)
		}
		if got := color.NRGBAModel.Convert(c.img.At(c.size.X/2, c.size.Y/2)); got != c.c {
			t.Errorf("%s: expected colour %v, got %v", c.name, c.c, got)
		}
	}
}

func TestPrepareEmpty(t *testing.T) {
	m := newTestMaker(t, testOptions())
	if _, err := m.Prepare(context.Background(), nil); !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("expected EMPTY_INPUT, got %v", err)
	}
}

func TestJustify(t *testing.T) {
	m := newTestMaker(t, testOptions())

	var images []image.Image
	for i := 0; i < 7; i++ {
		h := 300
		if i%2 == 1 {
			h = 600
		}
		images = append(images, createTestImage(400, h, red))
	}

	canvas, layout, err := m.Justify(images, types.Preset{Width: 800, RowHeight: 300})
	if err != nil {
		t.Fatalf("Justify() failed: %v", err)
	}
	if layout.RowHeight != 290 || len(layout.Rows) != 2 {
		t.Errorf("expected 2 rows at height 290, got %d rows at %d", len(layout.Rows), layout.RowHeight)
	}
	if canvas.Bounds().Size() != image.Pt(804, 444) {
		t.Errorf("expected 804x444 canvas, got %v", canvas.Bounds().Size())
	}
}

func TestPresets(t *testing.T) {
	m := newTestMaker(t, testOptions())
	if got := m.Presets(3); len(got) != 3 || got[0] != (types.Preset{Width: 1200, RowHeight: 450}) {
		t.Errorf("unexpected small set presets %v", got)
	}
	if got := m.Presets(6); got[0] != (types.Preset{Width: 800, RowHeight: 300}) {
		t.Errorf("unexpected large set presets %v", got)
	}

	opts := testOptions()
	opts.Presets = []types.Preset{{Width: 640, RowHeight: 200}}
	m = newTestMaker(t, opts)
	if got := m.Presets(10); len(got) != 1 || got[0].Width != 640 {
		t.Errorf("configured presets ignored: %v", got)
	}
}

func TestDecorate(t *testing.T) {
	opts := testOptions()
	opts.Text = "Summer"
	m := newTestMaker(t, opts)

	src := createTestImage(400, 300, color.NRGBA{10, 10, 10, 255})
	plain := m.Decorate(src, "", false)
	for i := range plain.Pix {
		if plain.Pix[i] != src.(*image.NRGBA).Pix[i] {
			t.Fatal("Decorate without text or logo changed the image")
		}
	}

	captioned := m.Decorate(src, "bottom-left", true)
	if captioned.NRGBAAt(0, 0) != (color.NRGBA{10, 10, 10, 255}) {
		t.Error("corner away from text changed")
	}
	changed := false
	for i := range captioned.Pix {
		if captioned.Pix[i] != src.(*image.NRGBA).Pix[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("Decorate did not draw anything")
	}
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "collages")
	writeImage(t, in, "a.png", createTestImage(400, 300, red))
	writeImage(t, in, "b.png", createTestImage(300, 400, blue))
	writeImage(t, in, "c.png", createTestImage(400, 300, blue))
	if err := os.WriteFile(filepath.Join(in, "broken.jpg"), []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	m := newTestMaker(t, testOptions())
	report, err := m.Run(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if report.Inputs != 4 {
		t.Errorf("expected 4 inputs, got %d", report.Inputs)
	}
	if report.Stats.Horizontal != 2 || report.Stats.Vertical != 1 {
		t.Errorf("unexpected stats %+v", report.Stats)
	}
	// 8 fillable layouts and 3 justified presets
	if len(report.Outputs) != 11 {
		t.Errorf("expected 11 outputs, got %d", len(report.Outputs))
	}
	// broken.jpg plus the five layouts needing four verticals
	if len(report.Skipped) != 6 {
		t.Errorf("expected 6 skipped, got %d: %+v", len(report.Skipped), report.Skipped)
	}
	if len(report.Failures) != 0 {
		t.Errorf("unexpected failures %+v", report.Failures)
	}
	if n := countFiles(t, out); n != len(report.Outputs) {
		t.Errorf("expected %d files on disk, got %d", len(report.Outputs), n)
	}
	for _, o := range report.Outputs {
		img, err := imaging.Open(o.Path)
		if err != nil {
			t.Errorf("output %s unreadable: %v", o.Name, err)
			continue
		}
		if img.Bounds().Dx() != o.Width || img.Bounds().Dy() != o.Height {
			t.Errorf("output %s: reported %dx%d, file is %v", o.Name, o.Width, o.Height, img.Bounds().Size())
		}
	}
}

func TestRunRecordsNonConvergence(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, in, "p1.png", createTestImage(500, 50, red))
	writeImage(t, in, "p2.png", createTestImage(500, 50, blue))

	opts := testOptions()
	opts.Presets = []types.Preset{{Width: 400, RowHeight: 50}}
	opts.Packing.MinRowHeight = 40
	opts.HorizontalSize = types.Size{W: 90, H: 60}
	opts.VerticalSize = types.Size{W: 60, H: 90}
	opts.HeroSize = types.Size{W: 90, H: 45}
	m := newTestMaker(t, opts)

	report, err := m.Run(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", report.Failures)
	}
	if report.Failures[0].Code != errors.ErrCodeNonConvergence {
		t.Errorf("expected LAYOUT_NON_CONVERGENCE, got %s", report.Failures[0].Code)
	}
	for _, o := range report.Outputs {
		if o.Name == "justified-400x50" {
			t.Error("failed justified collage was written")
		}
	}
	if n := countFiles(t, out); n != len(report.Outputs) {
		t.Errorf("expected %d files on disk, got %d", len(report.Outputs), n)
	}
}

func TestRunEmptyInput(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	m := newTestMaker(t, testOptions())

	_, err := m.Run(context.Background(), in, t.TempDir())
	if !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("expected EMPTY_INPUT, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	in := t.TempDir()
	writeImage(t, in, "a.png", createTestImage(400, 300, red))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newTestMaker(t, testOptions())
	if _, err := m.Run(ctx, in, t.TempDir()); err == nil {
		t.Error("expected an error from a cancelled run")
	}
}
