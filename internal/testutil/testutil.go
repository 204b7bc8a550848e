package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// CreateTempDir creates a temporary directory for testing.
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// MakeImage generates a small solid-color image with one distinct
// corner pixel so rotation tests can track where the corner lands.
func MakeImage(width, height int) *image.NRGBA {
	img := imaging.New(width, height, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

// WriteImage encodes a test image at path; the extension picks the
// format. Parent directories must already exist.
func WriteImage(t *testing.T, path string, width, height int) string {
	t.Helper()
	err := imaging.Save(MakeImage(width, height), path, imaging.JPEGQuality(90))
	require.NoError(t, err, "writing test image %s", path)
	return path
}

// WriteImageDir populates dir with one test image per given filename
// and returns the full paths in input order.
func WriteImageDir(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, WriteImage(t, filepath.Join(dir, name), 8, 6))
	}
	return paths
}

// WriteGarbageFile writes a file with the given name whose bytes are
// not a decodable image.
func WriteGarbageFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))
	return path
}
