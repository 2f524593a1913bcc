package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/xbanchon/image-transform-service/internal/engine"
	"github.com/xbanchon/image-transform-service/internal/engine/vips"
	"github.com/xbanchon/image-transform-service/internal/geometry"
	"github.com/xbanchon/image-transform-service/internal/pipeline"
	"github.com/xbanchon/image-transform-service/internal/store"
	"github.com/xbanchon/image-transform-service/internal/store/cache"
)

type RequestPayload struct {
	Operations []OperationPayload `json:"operations" validate:"required,min=1,max=20,dive"`
}

// OperationPayload is one entry of the ordered transform list. Which fields
// matter depends on op; the rest are ignored.
type OperationPayload struct {
	Op      string `json:"op" validate:"required,oneof=resize crop pad convert quality filters"`
	Width   int    `json:"width" validate:"gte=0"`
	Height  int    `json:"height" validate:"gte=0"`
	Mode    string `json:"mode" validate:"omitempty,oneof=limit fit fill pad"`
	Gravity string `json:"gravity" validate:"omitempty,oneof=center north south east west northeast northwest southeast southwest"`
	Format  string `json:"format" validate:"omitempty,oneof=jpeg jpg png webp tiff tif"`
	Quality int    `json:"quality" validate:"gte=0,lte=100"`
	Filters struct {
		Grayscale    bool    `json:"grayscale"`
		Sepia        bool    `json:"sepia"`
		Gamma        float32 `json:"gamma" validate:"gte=0"`
		GaussianBlur float32 `json:"gaussian_blur" validate:"gte=0"`
	} `json:"filters"`
}

func (app *application) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	buf, filename, _, err := readImageData(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if mtype := mimetype.Detect(buf); !strings.HasPrefix(mtype.String(), "image/") {
		app.badRequestResponse(w, r, errors.New("uploaded file is not an image"))
		return
	}

	meta, err := app.engine.Metadata(buf)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bucketFilename, signedURL, err := app.bucket.Images.UploadImage(filename, buf)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.logger.Infow("image uploaded", "filename", bucketFilename)

	user := getUserFromContext(r)

	image := &store.Image{
		URL:      signedURL,
		Filename: bucketFilename,
		Format:   meta.Format,
		Width:    meta.Size.Width,
		Height:   meta.Size.Height,
		UserID:   user.ID,
	}

	ctx := r.Context()

	if err := app.store.Images.Create(ctx, image); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, image); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getImageHandler(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	image, err := app.getImage(r.Context(), imageID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)
	if user.ID != image.UserID {
		app.forbiddenResponse(w, r, errors.New("image belongs to another user"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, image); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getImagesHandler(w http.ResponseWriter, r *http.Request) {
	pp := store.PaginationParams{
		PageID: 1,
		Limit:  10,
	}
	pp, err := pp.Parse(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(pp); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	user := getUserFromContext(r)

	images, err := app.store.Images.GetUserImages(ctx, user.ID, pp)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, images); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteImageHandler(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	image, err := app.getImage(r.Context(), imageID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)
	if user.ID != image.UserID {
		app.forbiddenResponse(w, r, errors.New("image belongs to another user"))
		return
	}

	if err := app.store.Images.Delete(r.Context(), imageID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if app.config.redisCfg.enabled {
		app.cacheStorage.Images.Delete(r.Context(), imageID)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) processImageHandler(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	image, err := app.getImage(r.Context(), imageID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)
	if image.UserID != user.ID {
		app.forbiddenResponse(w, r, errors.New("image belongs to another user"))
		return
	}

	// The raw body doubles as the variant cache key, so read it before
	// decoding.
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_578)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload RequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	newBuf, err := app.transformImage(r, image, body, payload)
	if err != nil {
		switch {
		case errors.Is(err, geometry.ErrInvalidDimension), errors.Is(err, geometry.ErrInvalidGravity):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.bucket.Images.UpdateImage(image.Filename, newBuf); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	meta, err := app.engine.Metadata(newBuf)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	image.Format = meta.Format
	image.Width = meta.Size.Width
	image.Height = meta.Size.Height
	image.UpdatedAt = time.Now().Format(time.RFC3339)

	if err := app.store.Images.Update(r.Context(), image); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if app.config.redisCfg.enabled {
		app.cacheStorage.Images.Delete(r.Context(), imageID)
	}

	if err := app.jsonResponse(w, http.StatusOK, image); err != nil {
		app.internalServerError(w, r, err)
	}
}

// transformImage runs the requested operation list over the stored image,
// going through the variant cache when redis is enabled.
func (app *application) transformImage(r *http.Request, image *store.Image, rawOps []byte, payload RequestPayload) ([]byte, error) {
	ctx := r.Context()

	var variantKey string
	if app.config.redisCfg.enabled {
		variantKey = cache.VariantKey(image.Filename, rawOps)

		cached, err := app.cacheStorage.Variants.Get(ctx, variantKey)
		if err != nil {
			app.logger.Warnw("variant cache read failed", "error", err.Error())
		}
		if cached != nil {
			app.logger.Infow("variant cache hit", "key", variantKey)
			return cached, nil
		}
	}

	buf, err := app.bucket.Images.StreamImage(image.Filename)
	if err != nil {
		return nil, err
	}

	p, err := app.buildPipeline(payload)
	if err != nil {
		return nil, err
	}

	app.logger.Infow("running transform", "image", image.ID, "ops", p.Len())
	newBuf, err := p.Execute(ctx, buf)
	if err != nil {
		return nil, err
	}

	if variantKey != "" {
		if err := app.cacheStorage.Variants.Set(ctx, variantKey, newBuf); err != nil {
			app.logger.Warnw("variant cache write failed", "error", err.Error())
		}
	}

	return newBuf, nil
}

// buildPipeline turns the validated payload into an ordered pipeline.
func (app *application) buildPipeline(payload RequestPayload) (*pipeline.Pipeline, error) {
	p := pipeline.New(app.engine, app.pipelineCfg)

	for _, op := range payload.Operations {
		gravity := app.pipelineCfg.DefaultGravity
		if op.Gravity != "" {
			g, err := geometry.ParseGravity(op.Gravity)
			if err != nil {
				return nil, err
			}
			gravity = g
		}

		switch op.Op {
		case "resize":
			mode := geometry.ModeFit
			if op.Mode != "" {
				m, err := geometry.ParseMode(op.Mode)
				if err != nil {
					return nil, err
				}
				mode = m
			}
			p.Resize(op.Width, op.Height, mode)
		case "crop":
			p.CropAt(op.Width, op.Height, gravity)
		case "pad":
			p.PadAt(op.Width, op.Height, gravity)
		case "convert":
			p.Convert(op.Format)
		case "quality":
			p.Quality(op.Quality)
		case "filters":
			filters := vipsFilters(op)
			p.Custom("filters", func(ctx context.Context, _ engine.Engine, buf []byte) ([]byte, error) {
				return app.engine.ApplyFilters(ctx, buf, filters)
			})
		}
	}

	return p, nil
}

func vipsFilters(op OperationPayload) vips.Filters {
	return vips.Filters{
		Grayscale:    op.Filters.Grayscale,
		Sepia:        op.Filters.Sepia,
		Gamma:        op.Filters.Gamma,
		GaussianBlur: op.Filters.GaussianBlur,
	}
}

// Utils
func readImageData(r *http.Request) ([]byte, string, int64, error) {
	r.ParseMultipartForm(10 << 20) // 10MB
	image, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", 0, err
	}

	defer image.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, image); err != nil {
		return nil, "", 0, err
	}

	return buf.Bytes(), header.Filename, header.Size, nil
}
