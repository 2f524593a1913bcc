package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbanchon/image-transform-service/internal/engine"
	"github.com/xbanchon/image-transform-service/internal/engine/vips"
	"github.com/xbanchon/image-transform-service/internal/geometry"
	"github.com/xbanchon/image-transform-service/internal/pipeline"
)

func newTestApp() *application {
	return &application{
		engine: vips.New(),
		pipelineCfg: pipeline.Config{
			DefaultGravity: geometry.GravityCenter,
			Background:     engine.Color{},
			Quality:        75,
		},
	}
}

func TestBuildPipeline(t *testing.T) {
	app := newTestApp()

	payload := RequestPayload{
		Operations: []OperationPayload{
			{Op: "resize", Width: 400, Height: 400, Mode: "fill"},
			{Op: "crop", Width: 100, Height: 100, Gravity: "northwest"},
			{Op: "pad", Width: 200, Height: 200},
			{Op: "convert", Format: "webp"},
			{Op: "quality", Quality: 80},
			{Op: "filters"},
		},
	}

	p, err := app.buildPipeline(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload.Operations), p.Len())
}

func TestBuildPipelineRejectsBadMode(t *testing.T) {
	app := newTestApp()

	payload := RequestPayload{
		Operations: []OperationPayload{
			{Op: "resize", Width: 400, Mode: "stretch"},
		},
	}

	_, err := app.buildPipeline(payload)
	assert.Error(t, err)
}

func TestRequestPayloadValidation(t *testing.T) {
	err := Validate.Struct(RequestPayload{})
	assert.Error(t, err, "empty operation list is rejected")

	err = Validate.Struct(RequestPayload{
		Operations: []OperationPayload{{Op: "shear"}},
	})
	assert.Error(t, err, "unknown op is rejected")

	err = Validate.Struct(RequestPayload{
		Operations: []OperationPayload{{Op: "resize", Width: 400, Mode: "limit"}},
	})
	assert.NoError(t, err)
}
