package vips

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/gift"
	"github.com/h2non/bimg"
	"github.com/xbanchon/image-transform-service/internal/engine"
)

// Filters are the pixel-level effects applied after geometry operations.
type Filters struct {
	Grayscale    bool
	Sepia        bool
	Gamma        float32
	GaussianBlur float32
}

func (f Filters) empty() bool {
	return !f.Grayscale && !f.Sepia && f.Gamma <= 0 && f.GaussianBlur <= 0
}

// ApplyFilters runs the requested gift filters over the image and re-encodes
// it in its current format. A no-op filter set returns the buffer unchanged.
func (e *Engine) ApplyFilters(ctx context.Context, buf []byte, filters Filters) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if filters.empty() {
		return buf, nil
	}

	format := bimg.DetermineImageTypeName(buf)

	g := gift.New()
	if filters.Grayscale {
		g.Add(gift.Grayscale())
	}
	if filters.Sepia {
		g.Add(gift.Sepia(50))
	}
	if filters.Gamma > 0 {
		g.Add(gift.Gamma(filters.Gamma))
	}
	if filters.GaussianBlur > 0 {
		g.Add(gift.GaussianBlur(filters.GaussianBlur))
	}

	src, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &engine.Error{Op: "filters", Err: err}
	}

	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	newBuf, err := encodeImage(dst, format)
	if err != nil {
		return nil, &engine.Error{Op: "filters", Err: err}
	}

	return newBuf, nil
}
