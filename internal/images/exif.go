package images

import (
	"errors"
	"fmt"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

// ProcessingError wraps a per-file failure with the operation that
// produced it. Individual file failures never abort a batch.
type ProcessingError struct {
	Operation string
	Path      string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("image %s failed for %s: %v", e.Operation, e.Path, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// ReadOrientation returns the EXIF orientation code stored in the file,
// or 1 when the file carries no EXIF data or no orientation tag.
func ReadOrientation(path string) (int, error) {
	rawExif, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return OrientationNormal, nil
		}
		return 0, &ProcessingError{Operation: "exif read", Path: path, Err: err}
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 0, &ProcessingError{Operation: "exif parse", Path: path, Err: err}
	}

	for _, entry := range entries {
		if entry.TagId != OrientationTag {
			continue
		}
		if vals, ok := entry.Value.([]uint16); ok && len(vals) > 0 {
			return int(vals[0]), nil
		}
	}
	return OrientationNormal, nil
}

// SetJPEGOrientation writes the EXIF orientation tag (274) into a JPEG
// file in place, creating the EXIF segment when the file has none. The
// pixel data is left untouched; only the metadata changes.
func SetJPEGOrientation(path string, code int) error {
	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseFile(path)
	if err != nil {
		return &ProcessingError{Operation: "jpeg parse", Path: path, Err: err}
	}

	sl, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return &ProcessingError{Operation: "jpeg parse", Path: path, Err: errors.New("unexpected media structure")}
	}

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		// No EXIF segment yet; start a fresh one.
		im := exifcommon.NewIfdMapping()
		if err := exifcommon.LoadStandardIfds(im); err != nil {
			return &ProcessingError{Operation: "exif build", Path: path, Err: err}
		}
		ti := exif.NewTagIndex()
		rootIb = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	}

	ifd0Ib, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
	if err != nil {
		return &ProcessingError{Operation: "exif build", Path: path, Err: err}
	}
	if err := ifd0Ib.SetStandardWithName("Orientation", []uint16{uint16(code)}); err != nil {
		return &ProcessingError{Operation: "exif write", Path: path, Err: err}
	}
	if err := sl.SetExif(rootIb); err != nil {
		return &ProcessingError{Operation: "exif write", Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &ProcessingError{Operation: "exif write", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Error closing %s: %v\n", path, cerr)
		}
	}()

	if err := sl.Write(f); err != nil {
		return &ProcessingError{Operation: "exif write", Path: path, Err: err}
	}
	return nil
}
