// Package vips implements the engine boundary on top of libvips through
// h2non/bimg. All pixel work happens inside libvips; this package only
// translates geometry results into bimg options.
package vips

import (
	"context"
	"errors"

	"github.com/h2non/bimg"
	"github.com/xbanchon/image-transform-service/internal/engine"
	"github.com/xbanchon/image-transform-service/internal/geometry"
)

var ImageTypes = map[string]bimg.ImageType{
	"jpeg": bimg.JPEG,
	"png":  bimg.PNG,
	"webp": bimg.WEBP,
	"tiff": bimg.TIFF,
}

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Metadata(buf []byte) (engine.Metadata, error) {
	meta, err := bimg.Metadata(buf)
	if err != nil {
		return engine.Metadata{}, &engine.Error{Op: "metadata", Err: err}
	}

	return engine.Metadata{
		Size:   geometry.Dimensions{Width: meta.Size.Width, Height: meta.Size.Height},
		Format: meta.Type,
	}, nil
}

func (e *Engine) Resize(ctx context.Context, buf []byte, size geometry.Dimensions, kernel geometry.Kernel) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	interpolator := bimg.Bicubic
	if kernel == geometry.KernelNearest {
		interpolator = bimg.Nearest
	}

	newBuf, err := bimg.NewImage(buf).Process(bimg.Options{
		Width:        size.Width,
		Height:       size.Height,
		Force:        true,
		Enlarge:      true,
		Interpolator: interpolator,
	})
	if err != nil {
		return nil, &engine.Error{Op: "resize", Err: err}
	}

	return newBuf, nil
}

func (e *Engine) Extract(ctx context.Context, buf []byte, top, left int, size geometry.Dimensions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	newBuf, err := bimg.NewImage(buf).Extract(top, left, size.Width, size.Height)
	if err != nil {
		return nil, &engine.Error{Op: "extract", Err: err}
	}

	return newBuf, nil
}

func (e *Engine) Convert(ctx context.Context, buf []byte, format string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if format == "jpg" {
		format = "jpeg"
	}
	if format == "tif" {
		format = "tiff"
	}

	if bimg.DetermineImageTypeName(buf) == format {
		return buf, nil
	}

	imgType, ok := ImageTypes[format]
	if !ok {
		return nil, &engine.Error{Op: "convert", Err: ErrUnsupportedFormat}
	}

	newBuf, err := bimg.NewImage(buf).Convert(imgType)
	if err != nil {
		return nil, &engine.Error{Op: "convert", Err: err}
	}

	if bimg.DetermineImageTypeName(newBuf) != format {
		return nil, &engine.Error{Op: "convert", Err: errors.New("unknown conversion error")}
	}

	return newBuf, nil
}

func (e *Engine) Quality(ctx context.Context, buf []byte, quality int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	newBuf, err := bimg.NewImage(buf).Process(bimg.Options{
		Quality: quality,
	})
	if err != nil {
		return nil, &engine.Error{Op: "quality", Err: err}
	}

	return newBuf, nil
}
