package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultImageExtensions are the inputs the collage pipeline decodes
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "webp"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the lower-cased file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks the extension against exts, or the defaults when exts is empty
func IsImageFile(filename string, exts ...string) bool {
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	ext := GetFileExtension(filename)
	for _, imgExt := range exts {
		if ext == strings.TrimPrefix(strings.ToLower(imgExt), ".") {
			return true
		}
	}
	return false
}

// ListImageFiles lists image files directly inside dir, in name order.
// Subdirectories are not descended into.
func ListImageFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name(), exts...) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// Timestamp formats t as YYYYMMDD-HHMMSS followed by milliseconds
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%s%02d", t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

// OutputFilename builds a unique output path such as
// dir/collage20240102-030405123-1b4e28ba.jpg
func OutputFilename(dir, prefix, ext string, now time.Time, id uuid.UUID) string {
	name := fmt.Sprintf("%s%s-%s.%s", prefix, Timestamp(now), id.String()[:8], strings.TrimPrefix(ext, "."))
	return filepath.Join(dir, name)
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && info.IsDir()
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
