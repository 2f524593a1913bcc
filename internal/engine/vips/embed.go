package vips

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/h2non/bimg"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/xbanchon/image-transform-service/internal/engine"
	"github.com/xbanchon/image-transform-service/internal/geometry"
	"golang.org/x/image/tiff"
)

// Embed composites the image onto a background-filled canvas at the given
// offset. bimg only exposes centered embedding, so the canvas is drawn with
// the standard library and re-encoded in the image's current format, the
// same way the filter path works.
func (e *Engine) Embed(ctx context.Context, buf []byte, top, left int, size geometry.Dimensions, background engine.Color) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := bimg.DetermineImageTypeName(buf)

	src, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &engine.Error{Op: "embed", Err: err}
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	fill := image.NewUniform(color.NRGBA{background.R, background.G, background.B, 255})
	draw.Draw(canvas, canvas.Bounds(), fill, image.Point{}, draw.Src)

	bounds := src.Bounds()
	at := image.Rect(left, top, left+bounds.Dx(), top+bounds.Dy())
	draw.Draw(canvas, at, src, bounds.Min, draw.Over)

	newBuf, err := encodeImage(canvas, format)
	if err != nil {
		return nil, &engine.Error{Op: "embed", Err: err}
	}

	return newBuf, nil
}

func encodeImage(dst image.Image, format string) ([]byte, error) {
	bufWriter := new(bytes.Buffer)

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(bufWriter, dst, nil); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(bufWriter, dst); err != nil {
			return nil, err
		}
	case "webp":
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 75)
		if err != nil {
			return nil, err
		}
		if err := webp.Encode(bufWriter, dst, options); err != nil {
			return nil, err
		}
	case "tiff", "tif":
		if err := tiff.Encode(bufWriter, dst, nil); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	return bufWriter.Bytes(), nil
}
