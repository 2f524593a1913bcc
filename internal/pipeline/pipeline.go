// Package pipeline builds ordered image transform requests and executes them
// against an engine. A Pipeline only accumulates operations; nothing touches
// the engine until Execute is called, and each operation is translated into
// engine primitives through the geometry package.
package pipeline

import (
	"context"
	"fmt"

	"github.com/xbanchon/image-transform-service/internal/engine"
	"github.com/xbanchon/image-transform-service/internal/geometry"
)

const DefaultQuality = 75

// Config replaces ambient module-level defaults: it is passed in explicitly
// and applied wherever an operation omits a value.
type Config struct {
	DefaultGravity geometry.Gravity
	Background     engine.Color
	Quality        int
}

// CustomFunc is an escape hatch for operations the builder has no verb for.
// It receives the running buffer and returns the replacement.
type CustomFunc func(ctx context.Context, eng engine.Engine, buf []byte) ([]byte, error)

type opKind int

const (
	opResize opKind = iota
	opCrop
	opPad
	opConvert
	opQuality
	opCustom
)

type operation struct {
	kind    opKind
	size    geometry.Dimensions
	mode    geometry.ResizeMode
	gravity geometry.Gravity
	format  string
	quality int
	name    string
	fn      CustomFunc
}

type Pipeline struct {
	eng engine.Engine
	cfg Config
	ops []operation
}

func New(eng engine.Engine, cfg Config) *Pipeline {
	if cfg.Quality <= 0 {
		cfg.Quality = DefaultQuality
	}
	return &Pipeline{eng: eng, cfg: cfg}
}

// Resize queues a geometry-resolved resize. Fill mode additionally crops the
// covered image down to the exact target at the configured default gravity;
// pad mode letterboxes a fitted image onto a target-sized canvas.
func (p *Pipeline) Resize(width, height int, mode geometry.ResizeMode) *Pipeline {
	p.ops = append(p.ops, operation{
		kind:    opResize,
		size:    geometry.Dimensions{Width: width, Height: height},
		mode:    mode,
		gravity: p.cfg.DefaultGravity,
	})
	return p
}

// Crop queues an extraction of a width x height region anchored at the
// configured default gravity.
func (p *Pipeline) Crop(width, height int) *Pipeline {
	return p.CropAt(width, height, p.cfg.DefaultGravity)
}

// CropAt queues an extraction anchored at an explicit gravity.
func (p *Pipeline) CropAt(width, height int, gravity geometry.Gravity) *Pipeline {
	p.ops = append(p.ops, operation{
		kind:    opCrop,
		size:    geometry.Dimensions{Width: width, Height: height},
		gravity: gravity,
	})
	return p
}

// Pad queues placement onto a width x height canvas at the configured
// default gravity, filled with the configured background.
func (p *Pipeline) Pad(width, height int) *Pipeline {
	return p.PadAt(width, height, p.cfg.DefaultGravity)
}

// PadAt queues placement onto a canvas anchored at an explicit gravity.
func (p *Pipeline) PadAt(width, height int, gravity geometry.Gravity) *Pipeline {
	p.ops = append(p.ops, operation{
		kind:    opPad,
		size:    geometry.Dimensions{Width: width, Height: height},
		gravity: gravity,
	})
	return p
}

// Convert queues a format conversion.
func (p *Pipeline) Convert(format string) *Pipeline {
	p.ops = append(p.ops, operation{kind: opConvert, format: format})
	return p
}

// Quality queues a re-encode at the given quality percentage. Non-positive
// values fall back to the configured quality.
func (p *Pipeline) Quality(quality int) *Pipeline {
	if quality <= 0 {
		quality = p.cfg.Quality
	}
	p.ops = append(p.ops, operation{kind: opQuality, quality: quality})
	return p
}

// Custom queues an arbitrary named operation.
func (p *Pipeline) Custom(name string, fn CustomFunc) *Pipeline {
	p.ops = append(p.ops, operation{kind: opCustom, name: name, fn: fn})
	return p
}

// Len reports how many operations are queued.
func (p *Pipeline) Len() int {
	return len(p.ops)
}

// Execute runs the queued operations in order over buf and returns the final
// image. Validation failures abort immediately; engine failures pass through
// unchanged.
func (p *Pipeline) Execute(ctx context.Context, buf []byte) ([]byte, error) {
	var err error
	for _, op := range p.ops {
		buf, err = p.apply(ctx, buf, op)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (p *Pipeline) apply(ctx context.Context, buf []byte, op operation) ([]byte, error) {
	switch op.kind {
	case opResize:
		return p.resize(ctx, buf, op)
	case opCrop:
		return p.crop(ctx, buf, op)
	case opPad:
		return p.pad(ctx, buf, op)
	case opConvert:
		return p.eng.Convert(ctx, buf, op.format)
	case opQuality:
		return p.eng.Quality(ctx, buf, op.quality)
	case opCustom:
		newBuf, err := op.fn(ctx, p.eng, buf)
		if err != nil {
			return nil, fmt.Errorf("custom %q: %w", op.name, err)
		}
		return newBuf, nil
	default:
		return nil, fmt.Errorf("unknown pipeline operation %d", op.kind)
	}
}

func (p *Pipeline) resize(ctx context.Context, buf []byte, op operation) ([]byte, error) {
	meta, err := p.eng.Metadata(buf)
	if err != nil {
		return nil, err
	}

	mode := op.mode
	if mode == geometry.ModePad {
		return p.resizeAndPad(ctx, buf, meta.Size, op)
	}

	ratio, kernel, err := geometry.ResolveRatio(meta.Size, op.size, mode)
	if err != nil {
		return nil, fmt.Errorf("resize: %w", err)
	}

	scaled := meta.Size.Scale(ratio)
	if scaled != meta.Size {
		buf, err = p.eng.Resize(ctx, buf, scaled, kernel)
		if err != nil {
			return nil, err
		}
	}

	// Fill produced a covering image; trim it down to the exact target.
	if mode == geometry.ModeFill && op.size.Width > 0 && op.size.Height > 0 && scaled != op.size {
		return p.extract(ctx, buf, scaled, op.size, op.gravity)
	}

	return buf, nil
}

func (p *Pipeline) resizeAndPad(ctx context.Context, buf []byte, current geometry.Dimensions, op operation) ([]byte, error) {
	ratio, kernel, err := geometry.ResolveRatio(current, op.size, geometry.ModeFit)
	if err != nil {
		return nil, fmt.Errorf("pad: %w", err)
	}

	scaled := current.Scale(ratio)
	if scaled != current {
		buf, err = p.eng.Resize(ctx, buf, scaled, kernel)
		if err != nil {
			return nil, err
		}
	}

	return p.embed(ctx, buf, scaled, op.size, op.gravity)
}

func (p *Pipeline) crop(ctx context.Context, buf []byte, op operation) ([]byte, error) {
	meta, err := p.eng.Metadata(buf)
	if err != nil {
		return nil, err
	}
	return p.extract(ctx, buf, meta.Size, op.size, op.gravity)
}

func (p *Pipeline) pad(ctx context.Context, buf []byte, op operation) ([]byte, error) {
	meta, err := p.eng.Metadata(buf)
	if err != nil {
		return nil, err
	}
	return p.embed(ctx, buf, meta.Size, op.size, op.gravity)
}

func (p *Pipeline) extract(ctx context.Context, buf []byte, current, target geometry.Dimensions, gravity geometry.Gravity) ([]byte, error) {
	top, left, err := geometry.ResolveOffset(current, target, gravity)
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}

	// A target exceeding the image collapses to the image's own extent in
	// that dimension, matching the zero offset the resolver already chose.
	size := target
	if size.Width > current.Width {
		size.Width = current.Width
	}
	if size.Height > current.Height {
		size.Height = current.Height
	}
	if size == current && top == 0 && left == 0 {
		return buf, nil
	}

	return p.eng.Extract(ctx, buf, top, left, size)
}

func (p *Pipeline) embed(ctx context.Context, buf []byte, current, canvas geometry.Dimensions, gravity geometry.Gravity) ([]byte, error) {
	// The resolver anchors the image inside the canvas, so the roles flip:
	// the canvas is the enclosing rectangle.
	top, left, err := geometry.ResolveOffset(canvas, current, gravity)
	if err != nil {
		return nil, fmt.Errorf("pad: %w", err)
	}

	if canvas == current {
		return buf, nil
	}

	return p.eng.Embed(ctx, buf, top, left, canvas, p.cfg.Background)
}
