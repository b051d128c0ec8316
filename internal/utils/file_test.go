package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want bool
	}{
		{"a.jpg", nil, true},
		{"a.JPEG", nil, true},
		{"a.png", nil, true},
		{"a.webp", nil, true},
		{"a.gif", nil, false},
		{"noext", nil, false},
		{"a.gif", []string{".gif"}, true},
		{"a.jpg", []string{"png"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageFile(tt.name, tt.exts...))
		})
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.jpg", "b.txt", "B.JPG", "d.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "e.jpg"), []byte("x"), 0644))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "B.JPG"),
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "c.png"),
		filepath.Join(dir, "d.webp"),
	}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestOutputFilename(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 7*int(time.Millisecond), time.UTC)
	id := uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")

	assert.Equal(t, "20240102-03040507", Timestamp(now))
	assert.Equal(t, filepath.Join("out", "collage20240102-03040507-1b4e28ba.jpg"),
		OutputFilename("out", "collage", "jpg", now, id))
	assert.Equal(t, filepath.Join("out", "x20240102-03040507-1b4e28ba.webp"),
		OutputFilename("out", "x", ".webp", now, id))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, FileExists(dir))
	require.NoError(t, EnsureDir(dir))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
