package templates

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/overlay"
	"github.com/menta2k/collage-maker/pkg/types"
)

var (
	red    = color.NRGBA{255, 0, 0, 255}
	green  = color.NRGBA{0, 255, 0, 255}
	blue   = color.NRGBA{0, 0, 255, 255}
	yellow = color.NRGBA{255, 255, 0, 255}
)

func solid(w, h int, c color.NRGBA) image.Image {
	return imaging.New(w, h, c)
}

type recordingPlacer struct {
	targets []types.Position
}

func (r *recordingPlacer) ZonedPlacement(_ context.Context, img image.Image, target types.Position) image.Image {
	r.targets = append(r.targets, target)
	return img
}

func TestCatalogue(t *testing.T) {
	all := Catalogue()
	require.Len(t, all, 11)

	seen := map[string]bool{}
	for _, tmpl := range all {
		t.Run(tmpl.Name, func(t *testing.T) {
			assert.False(t, seen[tmpl.Name], "duplicate name")
			seen[tmpl.Name] = true

			canvas := image.Rect(0, 0, tmpl.Width, tmpl.Height)
			for i, s := range tmpl.Slots {
				assert.False(t, s.Rect.Intersect(canvas).Empty(), "slot %d off canvas", i)
			}
			assert.Equal(t, white, tmpl.Background)
			assert.NotEmpty(t, tmpl.TextAt)
		})
	}
}

func TestRequires(t *testing.T) {
	tests := []struct {
		name string
		want map[types.Kind]int
	}{
		{"two-horizontal", map[types.Kind]int{types.KindHorizontal: 2}},
		{"three-horizontal-top", map[types.Kind]int{types.KindHorizontal: 1, types.KindVertical: 2}},
		{"four-vertical-grid", map[types.Kind]int{types.KindVertical: 4}},
		{"mosaic-right", map[types.Kind]int{types.KindVertical: 4}},
		{"portfolio", map[types.Kind]int{types.KindHero: 1, types.KindVertical: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := Find(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, tmpl.Requires())
		})
	}
}

func TestFind(t *testing.T) {
	tmpl, ok := Find("four-vertical-staggered")
	require.True(t, ok)
	assert.Equal(t, overlay.TopRight, tmpl.TextAt)

	mosaic, ok := Find("mosaic-left")
	require.True(t, ok)
	assert.False(t, mosaic.Logo)

	_, ok = Find("nope")
	assert.False(t, ok)

	assert.Len(t, Names(), 13)
}

func TestPlaceTwoHorizontal(t *testing.T) {
	tmpl, _ := Find("two-horizontal")
	pools := &Pools{Horizontal: []image.Image{solid(900, 600, red), solid(300, 200, blue), solid(10, 10, green)}}

	out, err := Place(tmpl, pools)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 790, 1085), out.Bounds())

	assert.Equal(t, white, out.NRGBAAt(2, 2))
	assert.Equal(t, red, out.NRGBAAt(100, 100))
	assert.Equal(t, red, out.NRGBAAt(784, 539))
	assert.Equal(t, white, out.NRGBAAt(100, 542))
	assert.Equal(t, blue, out.NRGBAAt(100, 600))
	assert.Equal(t, blue, out.NRGBAAt(784, 1079))
	assert.Equal(t, white, out.NRGBAAt(787, 1082))
}

func TestPlaceLaterSlotsCoverEarlier(t *testing.T) {
	tmpl, _ := Find("mosaic-left")
	pools := &Pools{Vertical: []image.Image{
		solid(400, 600, red), solid(400, 600, green), solid(300, 440, blue), solid(300, 440, yellow),
	}}

	out, err := Place(tmpl, pools)
	require.NoError(t, err)

	assert.Equal(t, red, out.NRGBAAt(100, 100))
	// slots 1 and 2 overlap at (330..405, 450..605)
	assert.Equal(t, green, out.NRGBAAt(350, 500))
	assert.Equal(t, blue, out.NRGBAAt(500, 100))
	assert.Equal(t, yellow, out.NRGBAAt(100, 800))
}

func TestPlaceClipsOverhang(t *testing.T) {
	tmpl, _ := Find("three-horizontal-top-flush")
	pools := &Pools{
		Horizontal: []image.Image{solid(900, 600, red)},
		Vertical:   []image.Image{solid(400, 600, blue), solid(400, 600, green)},
	}
	out, err := Place(tmpl, pools)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 1130), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(799, 0))
	assert.Equal(t, blue, out.NRGBAAt(10, 600))
	assert.Equal(t, green, out.NRGBAAt(790, 1120))
}

func TestPlacePortfolio(t *testing.T) {
	tmpl, _ := Find("portfolio")
	pools := &Pools{
		Hero:     []image.Image{solid(900, 450, yellow)},
		Vertical: []image.Image{solid(600, 900, red), solid(600, 900, green), solid(600, 900, blue)},
	}
	out, err := Place(tmpl, pools)
	require.NoError(t, err)
	assert.Equal(t, yellow, out.NRGBAAt(600, 300))
	assert.Equal(t, red, out.NRGBAAt(200, 900))
	assert.Equal(t, green, out.NRGBAAt(600, 900))
	assert.Equal(t, blue, out.NRGBAAt(1000, 900))
}

func TestPlaceInsufficient(t *testing.T) {
	tmpl, _ := Find("portfolio")
	pools := &Pools{Vertical: []image.Image{solid(10, 10, red)}}

	_, err := Place(tmpl, pools)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInsufficientImages))
	assert.Contains(t, err.Error(), "vertical 1/3")
	assert.Contains(t, err.Error(), "hero 0/1")
}

func TestSplitFirst(t *testing.T) {
	splits := Splits()
	require.Len(t, splits, 2)
	slash, backslash := splits[0], splits[1]

	assert.True(t, slash.First(700, 0))
	assert.False(t, slash.First(701, 0))
	assert.True(t, slash.First(500, 800))
	assert.False(t, slash.First(501, 800))

	assert.True(t, backslash.First(500, 0))
	assert.False(t, backslash.First(501, 0))
	assert.True(t, backslash.First(699, 799))
	assert.False(t, backslash.First(700, 799))
}

func TestCompose(t *testing.T) {
	for _, s := range Splits() {
		t.Run(s.Name, func(t *testing.T) {
			placer := &recordingPlacer{}
			out, err := Compose(context.Background(), s, solid(600, 400, red), solid(1500, 1000, blue), placer)
			require.NoError(t, err)

			assert.Equal(t, []types.Position{types.PositionLeft, types.PositionRight}, placer.targets)
			assert.Equal(t, image.Rect(0, 0, s.Width, s.Height), out.Bounds())
			for _, p := range []image.Point{{0, 0}, {1199, 0}, {0, 799}, {1199, 799}, {600, 400}} {
				want := blue
				if s.First(p.X, p.Y) {
					want = red
				}
				assert.Equal(t, want, out.NRGBAAt(p.X, p.Y), "pixel %v", p)
			}
		})
	}
}

func TestComposeMissingImage(t *testing.T) {
	_, err := Compose(context.Background(), Splits()[0], solid(10, 10, red), nil, &recordingPlacer{})
	assert.True(t, errors.Is(err, errors.ErrCodeInsufficientImages))
}

func TestComposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compose(ctx, Splits()[0], solid(10, 10, red), solid(10, 10, blue), &recordingPlacer{})
	assert.ErrorIs(t, err, context.Canceled)
}
