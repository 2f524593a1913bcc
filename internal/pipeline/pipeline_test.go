package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbanchon/image-transform-service/internal/engine"
	"github.com/xbanchon/image-transform-service/internal/geometry"
)

// fakeEngine records the primitive calls the pipeline makes and tracks the
// image size across them, without touching any pixels.
type fakeEngine struct {
	size   geometry.Dimensions
	format string
	calls  []string
	fail   error
}

func newFakeEngine(w, h int) *fakeEngine {
	return &fakeEngine{size: geometry.Dimensions{Width: w, Height: h}, format: "jpeg"}
}

func (f *fakeEngine) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeEngine) Metadata(buf []byte) (engine.Metadata, error) {
	if f.fail != nil {
		return engine.Metadata{}, f.fail
	}
	return engine.Metadata{Size: f.size, Format: f.format}, nil
}

func (f *fakeEngine) Resize(ctx context.Context, buf []byte, size geometry.Dimensions, kernel geometry.Kernel) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.record("resize %s %s", size, kernel)
	f.size = size
	return buf, nil
}

func (f *fakeEngine) Extract(ctx context.Context, buf []byte, top, left int, size geometry.Dimensions) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.record("extract %d,%d %s", top, left, size)
	f.size = size
	return buf, nil
}

func (f *fakeEngine) Embed(ctx context.Context, buf []byte, top, left int, size geometry.Dimensions, background engine.Color) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.record("embed %d,%d %s bg(%d,%d,%d)", top, left, size, background.R, background.G, background.B)
	f.size = size
	return buf, nil
}

func (f *fakeEngine) Convert(ctx context.Context, buf []byte, format string) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.record("convert %s", format)
	f.format = format
	return buf, nil
}

func (f *fakeEngine) Quality(ctx context.Context, buf []byte, quality int) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.record("quality %d", quality)
	return buf, nil
}

func TestPipelineDeferredExecution(t *testing.T) {
	eng := newFakeEngine(800, 600)
	p := New(eng, Config{}).
		Resize(400, 400, geometry.ModeFit).
		Crop(100, 100).
		Convert("png")

	assert.Equal(t, 3, p.Len())
	assert.Empty(t, eng.calls, "no engine calls before Execute")

	_, err := p.Execute(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Len(t, eng.calls, 3)
}

func TestPipelineFitResize(t *testing.T) {
	eng := newFakeEngine(800, 600)
	_, err := New(eng, Config{}).
		Resize(400, 400, geometry.ModeFit).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, []string{"resize 400x300 cubic"}, eng.calls)
}

func TestPipelineLimitSkipsUpscale(t *testing.T) {
	eng := newFakeEngine(300, 200)
	_, err := New(eng, Config{}).
		Resize(600, 600, geometry.ModeLimit).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Empty(t, eng.calls, "limit at ratio 1 is a no-op")
}

func TestPipelineFillResizesThenCrops(t *testing.T) {
	eng := newFakeEngine(800, 600)
	_, err := New(eng, Config{}).
		Resize(400, 400, geometry.ModeFill).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	// Fill ratio is 400/600: cover at 533x400, then center-crop to 400x400.
	assert.Equal(t, []string{
		"resize 533x400 cubic",
		"extract 0,66 400x400",
	}, eng.calls)
	assert.Equal(t, geometry.Dimensions{Width: 400, Height: 400}, eng.size)
}

func TestPipelinePadFitsThenEmbeds(t *testing.T) {
	eng := newFakeEngine(800, 600)
	cfg := Config{Background: engine.Color{R: 255, G: 255, B: 255}}
	_, err := New(eng, cfg).
		Resize(400, 400, geometry.ModePad).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	// Fit to 400x300, then center on the 400x400 canvas: 50px above and
	// below.
	assert.Equal(t, []string{
		"resize 400x300 cubic",
		"embed 50,0 400x400 bg(255,255,255)",
	}, eng.calls)
}

func TestPipelinePadGravity(t *testing.T) {
	eng := newFakeEngine(200, 100)
	_, err := New(eng, Config{}).
		PadAt(400, 400, geometry.GravitySouthEast).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, []string{"embed 300,200 400x400 bg(0,0,0)"}, eng.calls)
}

func TestPipelineCropGravity(t *testing.T) {
	eng := newFakeEngine(800, 600)
	_, err := New(eng, Config{}).
		CropAt(400, 400, geometry.GravityNorthWest).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, []string{"extract 0,0 400x400"}, eng.calls)
}

func TestPipelineCropDefaultGravityFromConfig(t *testing.T) {
	eng := newFakeEngine(800, 600)
	_, err := New(eng, Config{DefaultGravity: geometry.GravitySouthEast}).
		Crop(400, 400).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, []string{"extract 200,400 400x400"}, eng.calls)
}

func TestPipelineCropLargerThanImageClamps(t *testing.T) {
	eng := newFakeEngine(300, 500)
	_, err := New(eng, Config{}).
		Crop(400, 400).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	// Width collapses to the image's own 300; height crops normally.
	assert.Equal(t, []string{"extract 50,0 300x400"}, eng.calls)
}

func TestPipelineInvalidGeometryAborts(t *testing.T) {
	eng := newFakeEngine(800, 600)
	_, err := New(eng, Config{}).
		Resize(0, 0, geometry.ModeFit).
		Convert("png").
		Execute(context.Background(), []byte("img"))

	assert.ErrorIs(t, err, geometry.ErrInvalidDimension)
	assert.Empty(t, eng.calls, "nothing ran after the validation failure")
}

func TestPipelineEngineFailurePassesThrough(t *testing.T) {
	eng := newFakeEngine(800, 600)
	engErr := &engine.Error{Op: "resize", Err: errors.New("vips blew up")}
	eng.fail = engErr

	_, err := New(eng, Config{}).
		Resize(400, 400, geometry.ModeFit).
		Execute(context.Background(), []byte("img"))

	var e *engine.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "resize", e.Op)
}

func TestPipelineCustomOp(t *testing.T) {
	eng := newFakeEngine(800, 600)
	called := false
	_, err := New(eng, Config{}).
		Custom("stamp", func(ctx context.Context, e engine.Engine, buf []byte) ([]byte, error) {
			called = true
			return append(buf, '!'), nil
		}).
		Execute(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.True(t, called)
}

func TestPipelineQualityDefault(t *testing.T) {
	eng := newFakeEngine(800, 600)
	_, err := New(eng, Config{Quality: 90}).
		Quality(0).
		Execute(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, []string{"quality 90"}, eng.calls)
}
