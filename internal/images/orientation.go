package images

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// OrientationTag is the standard EXIF orientation tag id (274).
const OrientationTag = 0x0112

// EXIF orientation codes 1-8.
const (
	OrientationNormal      = 1
	OrientationMirrorH     = 2
	OrientationRotate180   = 3
	OrientationMirrorV     = 4
	OrientationTranspose   = 5
	OrientationRotate90CW  = 6
	OrientationTransverse  = 7
	OrientationRotate270CW = 8
)

// OrientationDescriptions maps each orientation code to a human-readable
// description of how the stored pixels relate to the intended view.
var OrientationDescriptions = map[int]string{
	1: "Normal",
	2: "Mirrored",
	3: "Rotated 180°",
	4: "Mirrored and rotated 180°",
	5: "Mirrored and rotated 90° CCW",
	6: "Rotated 90° CW",
	7: "Mirrored and rotated 90° CW",
	8: "Rotated 270° CW",
}

// Role classifies a file by its filename for the tag-writing mode.
type Role int

const (
	RoleUnclassified Role = iota
	RoleFront
	RoleBack
)

func (r Role) String() string {
	switch r {
	case RoleFront:
		return "front"
	case RoleBack:
		return "back"
	default:
		return "unclassified"
	}
}

// ClassifyRole inspects the filename (not the full path) for the
// "front" or "back" substring, case-insensitively. Front cards get
// orientation 8 (270° CW), back cards orientation 6 (90° CW); anything
// else is left untouched.
func ClassifyRole(path string) (Role, int) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "front"):
		return RoleFront, OrientationRotate270CW
	case strings.Contains(name, "back"):
		return RoleBack, OrientationRotate90CW
	default:
		return RoleUnclassified, OrientationNormal
	}
}

// ApplyOrientation applies the pixel transform that corrects an image
// stored with the given EXIF orientation code. Code 1 (and anything out
// of range) is a no-op and returns the input unchanged.
func ApplyOrientation(img image.Image, code int) image.Image {
	switch code {
	case OrientationMirrorH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationMirrorV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate90CW:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate270CW:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
