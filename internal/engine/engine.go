// Package engine defines the boundary between the transform pipeline and the
// native image library that does the actual decoding, resampling and
// encoding. The pipeline only ever hands an engine scalar geometry results
// (ratio, kernel, offsets) and opaque image buffers.
package engine

import (
	"context"
	"fmt"

	"github.com/xbanchon/image-transform-service/internal/geometry"
)

// Metadata describes a decoded image without holding its pixels.
type Metadata struct {
	Size   geometry.Dimensions
	Format string
}

// Color is an RGB background used when padding onto a larger canvas.
type Color struct {
	R, G, B uint8
}

// Engine is the set of primitives the pipeline needs from a native image
// library. Implementations own decode/encode, resampling kernels and color
// handling; callers own geometry.
type Engine interface {
	Metadata(buf []byte) (Metadata, error)

	// Resize scales the image to the exact given dimensions using the hinted
	// kernel.
	Resize(ctx context.Context, buf []byte, size geometry.Dimensions, kernel geometry.Kernel) ([]byte, error)

	// Extract crops a size-d region whose top-left corner is (left, top).
	Extract(ctx context.Context, buf []byte, top, left int, size geometry.Dimensions) ([]byte, error)

	// Embed places the image onto a size-d canvas at (left, top), filling
	// the rest with the background color.
	Embed(ctx context.Context, buf []byte, top, left int, size geometry.Dimensions, background Color) ([]byte, error)

	// Convert re-encodes the image in the named format.
	Convert(ctx context.Context, buf []byte, format string) ([]byte, error)

	// Quality re-encodes the image at the given quality percentage.
	Quality(ctx context.Context, buf []byte, quality int) ([]byte, error)
}

// Error wraps a failure reported by the native library. The pipeline never
// interprets or recovers from these; they surface to the caller as-is.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
