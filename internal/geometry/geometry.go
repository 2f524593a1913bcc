// Package geometry computes scale ratios and placement offsets for image
// transforms. It is the only piece of the service that is not delegated to
// libvips: everything here is plain arithmetic over dimensions, gravities
// and resize modes, with no I/O and no shared state.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrInvalidGravity   = errors.New("invalid gravity")
)

// Dimensions is a width/height pair in pixels. In a target position a zero
// component means "unspecified": infer it from the other component keeping
// the source aspect ratio.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) AspectRatio() float64 {
	return float64(d.Width) / float64(d.Height)
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Scale returns the dimensions multiplied by ratio, rounded to the nearest
// pixel.
func (d Dimensions) Scale(ratio float64) Dimensions {
	return Dimensions{
		Width:  round(float64(d.Width) * ratio),
		Height: round(float64(d.Height) * ratio),
	}
}

// ResizeMode governs how target dimensions interact with source dimensions.
type ResizeMode int

const (
	// ModeLimit shrinks the image to fit inside the target, never upscales.
	ModeLimit ResizeMode = iota
	// ModeFit scales the image to fit inside the target, upscaling if needed.
	ModeFit
	// ModeFill scales the image to fully cover the target.
	ModeFill
	// ModePad fits the image inside the target and letterboxes the rest.
	ModePad
)

var modeNames = map[ResizeMode]string{
	ModeLimit: "limit",
	ModeFit:   "fit",
	ModeFill:  "fill",
	ModePad:   "pad",
}

func (m ResizeMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a mode name to its ResizeMode. Unknown names fail.
func ParseMode(s string) (ResizeMode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown resize mode %q", s)
}

// Gravity names the region of an image to anchor during cropping, or the
// placement of an image inside a padded canvas.
type Gravity int

const (
	GravityCenter Gravity = iota
	GravityNorth
	GravitySouth
	GravityEast
	GravityWest
	GravityNorthEast
	GravityNorthWest
	GravitySouthEast
	GravitySouthWest
)

var gravityNames = map[Gravity]string{
	GravityCenter:    "center",
	GravityNorth:     "north",
	GravitySouth:     "south",
	GravityEast:      "east",
	GravityWest:      "west",
	GravityNorthEast: "northeast",
	GravityNorthWest: "northwest",
	GravitySouthEast: "southeast",
	GravitySouthWest: "southwest",
}

func (g Gravity) String() string {
	if s, ok := gravityNames[g]; ok {
		return s
	}
	return fmt.Sprintf("gravity(%d)", int(g))
}

func (g Gravity) valid() bool {
	_, ok := gravityNames[g]
	return ok
}

// ParseGravity maps a gravity name to its Gravity. Unknown names fail with
// ErrInvalidGravity.
func ParseGravity(s string) (Gravity, error) {
	for g, name := range gravityNames {
		if name == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGravity, s)
}

// Kernel is the resampling filter hint handed to the engine alongside the
// ratio.
type Kernel int

const (
	// KernelCubic is the smooth kernel used when downscaling, where aliasing
	// is visible.
	KernelCubic Kernel = iota
	// KernelNearest is the cheap kernel used when upscaling.
	KernelNearest
)

func (k Kernel) String() string {
	if k == KernelNearest {
		return "nearest"
	}
	return "cubic"
}

// ResolveRatio computes the scale ratio that maps source onto target under
// the given mode, plus the kernel the engine should resample with.
//
// A zero target component is inferred from the other one, preserving the
// source aspect ratio; when only one component is specified the ratio is
// taken from that component alone. Limit mode never upscales: a ratio that
// comes out at 1 or above collapses to exactly 1.
func ResolveRatio(source, target Dimensions, mode ResizeMode) (float64, Kernel, error) {
	if source.Width <= 0 || source.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: source %s", ErrInvalidDimension, source)
	}
	if target.Width < 0 || target.Height < 0 {
		return 0, 0, fmt.Errorf("%w: target %s", ErrInvalidDimension, target)
	}
	if target.Width == 0 && target.Height == 0 {
		return 0, 0, fmt.Errorf("%w: target has no dimensions", ErrInvalidDimension)
	}

	var ratio float64
	switch {
	case target.Height == 0:
		ratio = float64(target.Width) / float64(source.Width)
	case target.Width == 0:
		ratio = float64(target.Height) / float64(source.Height)
	default:
		wr := float64(target.Width) / float64(source.Width)
		hr := float64(target.Height) / float64(source.Height)
		if mode == ModeFill {
			ratio = math.Max(wr, hr)
		} else {
			ratio = math.Min(wr, hr)
		}
	}

	if mode == ModeLimit && ratio >= 1 {
		ratio = 1
	}

	kernel := KernelCubic
	if ratio > 1 {
		kernel = KernelNearest
	}
	return ratio, kernel, nil
}

// ResolveOffset computes the top-left origin of a target-sized rectangle
// anchored within the current image according to gravity. For cropping,
// current encloses target; for padding, call it with the canvas as current
// and the image as target to get the image's placement inside the canvas.
//
// Integer division truncates, so an odd pixel of slack lands on the bottom
// or right edge. A target larger than current in some dimension clamps that
// offset to zero rather than going negative.
func ResolveOffset(current, target Dimensions, gravity Gravity) (top, left int, err error) {
	if current.Width <= 0 || current.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: current %s", ErrInvalidDimension, current)
	}
	if target.Width <= 0 || target.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: target %s", ErrInvalidDimension, target)
	}
	if !gravity.valid() {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidGravity, gravity)
	}

	switch gravity {
	case GravityWest, GravityNorthWest, GravitySouthWest:
		left = 0
	case GravityEast, GravityNorthEast, GravitySouthEast:
		left = current.Width - target.Width
	default:
		left = (current.Width - target.Width) / 2
	}

	switch gravity {
	case GravityNorth, GravityNorthWest, GravityNorthEast:
		top = 0
	case GravitySouth, GravitySouthWest, GravitySouthEast:
		top = current.Height - target.Height
	default:
		top = (current.Height - target.Height) / 2
	}

	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	return top, left, nil
}

func round(in float64) int {
	if in < 0 {
		return int(math.Ceil(in - 0.5))
	}
	return int(math.Floor(in + 0.5))
}
