package images

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// JPEGQuality is the fixed quality used whenever a JPEG is re-encoded.
const JPEGQuality = 95

// FileError records one isolated per-file failure.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// NameStats summarizes a tag-mode run over one folder.
type NameStats struct {
	Total   int `json:"total"`
	Front   int `json:"front"`
	Back    int `json:"back"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// NameResult is the outcome of RotateByName. ReadyPaths holds every
// enumerated file regardless of classification or failure, since the
// upload must include unclassified files too.
type NameResult struct {
	Stats      NameStats   `json:"stats"`
	ReadyPaths []string    `json:"ready_paths"`
	Failed     []FileError `json:"failed,omitempty"`
}

// RotateByName processes a folder in tag mode: files whose name
// contains "front" get EXIF orientation 8, "back" gets 6, everything
// else is skipped. JPEGs are re-encoded at quality 95 with the tag
// written into the file; formats without an EXIF carrier get the
// equivalent pixel transpose in place. Per-file errors are counted and
// logged but never abort the folder. An empty folder yields a
// well-formed zero-count result.
func RotateByName(folder string, progress ProgressCallback) (*NameResult, error) {
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	files, err := DiscoverImages(folder)
	if err != nil {
		return nil, err
	}

	result := &NameResult{Stats: NameStats{Total: len(files)}}
	if len(files) == 0 {
		slog.Warn("no supported images found", "folder", folder)
		return result, nil
	}

	progress.OnStart(len(files))
	for i, path := range files {
		result.ReadyPaths = append(result.ReadyPaths, path)

		role, code := ClassifyRole(path)
		if role == RoleUnclassified {
			result.Stats.Skipped++
			progress.OnProgress(i+1, len(files), path)
			continue
		}

		if err := writeOrientation(path, code); err != nil {
			result.Stats.Errors++
			result.Failed = append(result.Failed, FileError{Path: path, Err: err.Error()})
			slog.Error("image orientation failed", "path", path, "error", err)
			progress.OnError(path, err)
			progress.OnProgress(i+1, len(files), path)
			continue
		}

		switch role {
		case RoleFront:
			result.Stats.Front++
		case RoleBack:
			result.Stats.Back++
		}
		slog.Debug("orientation assigned",
			"path", path, "role", role.String(), "orientation", code)
		progress.OnProgress(i+1, len(files), path)
	}
	progress.OnComplete()

	return result, nil
}

// writeOrientation applies the target orientation to one classified
// file: JPEGs carry it as metadata after a quality-95 re-encode, other
// formats get the corresponding pixel transform in place.
func writeOrientation(path string, code int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return &ProcessingError{Operation: "decode", Path: path, Err: err}
	}

	if IsJPEG(path) {
		if err := imaging.Save(img, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return &ProcessingError{Operation: "encode", Path: path, Err: err}
		}
		return SetJPEGOrientation(path, code)
	}

	rotated := ApplyOrientation(img, code)
	if err := imaging.Save(rotated, path); err != nil {
		return &ProcessingError{Operation: "encode", Path: path, Err: err}
	}
	return nil
}

// EXIFStats summarizes an EXIF-mode run over one folder.
type EXIFStats struct {
	Total   int `json:"total"`
	Rotated int `json:"rotated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// EXIFResult is the outcome of RotateByEXIF. RotatedPaths point at the
// rotated outputs (the rotated_images copy for JPEGs, the original path
// otherwise); SkippedPaths are files that needed no rotation.
type EXIFResult struct {
	Stats        EXIFStats   `json:"stats"`
	RotatedPaths []string    `json:"rotated_paths"`
	SkippedPaths []string    `json:"skipped_paths"`
	Failed       []FileError `json:"failed,omitempty"`
}

// ReadyPaths returns every usable output path: rotated results first,
// then the skipped originals.
func (r *EXIFResult) ReadyPaths() []string {
	paths := make([]string, 0, len(r.RotatedPaths)+len(r.SkippedPaths))
	paths = append(paths, r.RotatedPaths...)
	paths = append(paths, r.SkippedPaths...)
	return paths
}

// RotateByEXIF processes a folder in EXIF mode: each file's stored
// orientation code is read and the corresponding pixel transform
// applied immediately. JPEG results go into a sibling rotated_images
// subfolder to avoid destructive lossy re-encoding of the original;
// other formats are rotated in place. Code 1 (or no EXIF) means the
// file is already upright and is skipped.
func RotateByEXIF(folder string, progress ProgressCallback) (*EXIFResult, error) {
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	files, err := DiscoverImages(folder)
	if err != nil {
		return nil, err
	}

	result := &EXIFResult{Stats: EXIFStats{Total: len(files)}}
	if len(files) == 0 {
		slog.Warn("no supported images found", "folder", folder)
		return result, nil
	}

	rotatedDir := filepath.Join(folder, RotatedDirName)

	progress.OnStart(len(files))
	for i, path := range files {
		outPath, rotated, err := rotateFileByEXIF(path, rotatedDir)
		switch {
		case err != nil:
			result.Stats.Errors++
			result.Failed = append(result.Failed, FileError{Path: path, Err: err.Error()})
			slog.Error("image rotation failed", "path", path, "error", err)
			progress.OnError(path, err)
		case rotated:
			result.Stats.Rotated++
			result.RotatedPaths = append(result.RotatedPaths, outPath)
		default:
			result.Stats.Skipped++
			result.SkippedPaths = append(result.SkippedPaths, path)
		}
		progress.OnProgress(i+1, len(files), path)
	}
	progress.OnComplete()

	return result, nil
}

func rotateFileByEXIF(path, rotatedDir string) (string, bool, error) {
	code, err := ReadOrientation(path)
	if err != nil {
		return "", false, err
	}
	if code == OrientationNormal {
		return path, false, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return "", false, &ProcessingError{Operation: "decode", Path: path, Err: err}
	}
	rotated := ApplyOrientation(img, code)

	if IsJPEG(path) {
		if err := os.MkdirAll(rotatedDir, 0o750); err != nil {
			return "", false, &ProcessingError{Operation: "mkdir", Path: rotatedDir, Err: err}
		}
		outPath := filepath.Join(rotatedDir, filepath.Base(path))
		if err := imaging.Save(rotated, outPath, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return "", false, &ProcessingError{Operation: "encode", Path: outPath, Err: err}
		}
		slog.Debug("rotated jpeg copy written",
			"source", path, "output", outPath, "orientation", code,
			"description", OrientationDescriptions[code])
		return outPath, true, nil
	}

	if err := imaging.Save(rotated, path); err != nil {
		return "", false, &ProcessingError{Operation: "encode", Path: path, Err: err}
	}
	slog.Debug("rotated in place", "path", path, "orientation", code)
	return path, true, nil
}

// Summary renders a short human-readable summary line for logs.
func (s NameStats) Summary() string {
	return fmt.Sprintf("total=%d front=%d back=%d skipped=%d errors=%d",
		s.Total, s.Front, s.Back, s.Skipped, s.Errors)
}
