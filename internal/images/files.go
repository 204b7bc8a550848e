package images

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions lists the image file extensions eligible for
// processing and upload, matched case-insensitively.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// RotatedDirName is the sibling subfolder that receives non-destructive
// JPEG copies in EXIF mode.
const RotatedDirName = "rotated_images"

// IsSupported reports whether the path has a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// IsJPEG reports whether the path names a JPEG file.
func IsJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}

// DiscoverImages enumerates the supported image files directly under
// folder, sorted by name. Subdirectories are not descended into, so a
// previously created rotated_images folder never feeds back in. An
// existing empty folder yields an empty list and no error; a missing
// folder is an error.
func DiscoverImages(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if os.IsNotExist(err) {
		// The config layer reports missing folders up front; here a
		// vanished folder is just an empty result.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access image folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading image folder %s: %w", folder, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(folder, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
