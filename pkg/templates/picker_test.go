package templates

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/types"
)

// tagged builds distinguishable images whose width encodes their index
func tagged(n int) []image.Image {
	imgs := make([]image.Image, n)
	for i := range imgs {
		imgs[i] = image.NewNRGBA(image.Rect(0, 0, i+1, 1))
	}
	return imgs
}

func ids(imgs []image.Image) []int {
	out := make([]int, len(imgs))
	for i, img := range imgs {
		out[i] = img.Bounds().Dx() - 1
	}
	return out
}

func TestOrderedPicker(t *testing.T) {
	pools := &Pools{Vertical: tagged(5), Hero: tagged(1)}
	got, err := NewOrderedPicker().Pick(pools, map[types.Kind]int{types.KindVertical: 3, types.KindHero: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ids(got.Vertical))
	assert.Equal(t, []int{0}, ids(got.Hero))
	assert.Empty(t, got.Horizontal)
}

func TestSeededPickerIsReproducible(t *testing.T) {
	pools := &Pools{Horizontal: tagged(10)}
	need := map[types.Kind]int{types.KindHorizontal: 4}

	a, err := NewPicker(42).Pick(pools, need)
	require.NoError(t, err)
	b, err := NewPicker(42).Pick(pools, need)
	require.NoError(t, err)
	assert.Equal(t, ids(a.Horizontal), ids(b.Horizontal))

	distinct := map[int]bool{}
	for _, id := range ids(a.Horizontal) {
		distinct[id] = true
	}
	assert.Len(t, distinct, 4)

	// source pool is untouched
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(pools.Horizontal))
}

func TestPickerInsufficient(t *testing.T) {
	pools := &Pools{Horizontal: tagged(1)}
	_, err := NewPicker(1).Pick(pools, map[types.Kind]int{types.KindHorizontal: 2})
	assert.True(t, errors.Is(err, errors.ErrCodeInsufficientImages))

	_, _, err = NewPicker(1).Pair(pools, types.KindHorizontal)
	assert.True(t, errors.Is(err, errors.ErrCodeInsufficientImages))
}

func TestPickerPair(t *testing.T) {
	pools := &Pools{Horizontal: tagged(2)}
	a, b, err := NewOrderedPicker().Pair(pools, types.KindHorizontal)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Bounds().Dx())
	assert.Equal(t, 2, b.Bounds().Dx())
}

func TestPickerShuffle(t *testing.T) {
	imgs := tagged(6)
	NewOrderedPicker().Shuffle(imgs)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, ids(imgs))

	a, b := tagged(6), tagged(6)
	NewPicker(7).Shuffle(a)
	NewPicker(7).Shuffle(b)
	assert.Equal(t, ids(a), ids(b))
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, ids(a))
}
