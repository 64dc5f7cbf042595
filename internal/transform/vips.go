// Package transform implements the pixel-work collaborator on libvips via
// govips. The engine only executes the parameters it is handed; every
// decision (crop rectangle, multipliers, thresholds) is made upstream.
package transform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/davidbyttow/govips/v2/vips"
	"go.uber.org/zap"

	"github.com/rmarek/headshot-service/internal/engine"
	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
)

// Startup initialises libvips. Call once at process start, pair with
// Shutdown at exit.
func Startup(concurrency int) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     200,
	})
}

// Shutdown releases all libvips resources.
func Shutdown() {
	vips.Shutdown()
}

// Engine satisfies engine.Transformer. It is stateless and safe for
// concurrent use; each request owns its own image handles.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a vips-backed transform engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// handle wraps a vips image ref as the orchestrator's opaque Image. All
// operations mutate the ref in place, so the same handle flows through the
// whole pipeline and is closed exactly once.
type handle struct {
	ref *vips.ImageRef
}

func (h *handle) Close() {
	h.ref.Close()
}

func asHandle(img engine.Image) (*handle, error) {
	h, ok := img.(*handle)
	if !ok {
		return nil, fmt.Errorf("foreign image handle %T", img)
	}
	return h, nil
}

// Decode loads the image header and pixels from raw bytes.
func (e *Engine) Decode(ctx context.Context, data []byte) (engine.Image, model.ImageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.ImageMetadata{}, err
	}
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, model.ImageMetadata{}, fmt.Errorf("vips decode: %w", err)
	}
	meta := model.ImageMetadata{Width: ref.Width(), Height: ref.Height()}
	return &handle{ref: ref}, meta, nil
}

// ExtractAndResize crops the region out of the source and scales it to fit
// the output size.
func (e *Engine) ExtractAndResize(ctx context.Context, img engine.Image, region model.CropRegion, size int) (engine.Image, error) {
	h, err := asHandle(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.ref.ExtractArea(region.Left, region.Top, region.Width, region.Height); err != nil {
		return nil, fmt.Errorf("vips extract %+v: %w", region, err)
	}
	if err := h.ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize to %d: %w", size, err)
	}
	return h, nil
}

// AverageLuminance computes the mean pixel value of a grayscale copy on the
// 0..255 scale. The copy keeps the working image untouched.
func (e *Engine) AverageLuminance(ctx context.Context, img engine.Image) (float64, error) {
	h, err := asHandle(img)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	gray, err := h.ref.Copy()
	if err != nil {
		return 0, fmt.Errorf("vips copy for stats: %w", err)
	}
	defer gray.Close()

	if err := gray.ToColorSpace(vips.InterpretationBW); err != nil {
		return 0, fmt.Errorf("vips grayscale: %w", err)
	}
	avg, err := gray.Average()
	if err != nil {
		return 0, fmt.Errorf("vips average: %w", err)
	}
	return avg, nil
}

// ModulateAndContrast applies the color-correct stage: brightness,
// saturation and hue modulation, linear contrast, then gamma.
func (e *Engine) ModulateAndContrast(ctx context.Context, img engine.Image, p engine.ColorParams) (engine.Image, error) {
	h, err := asHandle(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.ref.Modulate(p.Brightness, p.Saturation, p.Hue); err != nil {
		return nil, fmt.Errorf("vips modulate: %w", err)
	}
	if err := h.ref.Linear1(p.LinearA, p.LinearB); err != nil {
		return nil, fmt.Errorf("vips linear contrast: %w", err)
	}
	if err := h.ref.Gamma(p.Gamma); err != nil {
		return nil, fmt.Errorf("vips gamma: %w", err)
	}
	return h, nil
}

// SharpenAndEncode applies the final-adjust stage and encodes the result.
func (e *Engine) SharpenAndEncode(ctx context.Context, img engine.Image, p engine.FinalParams) ([]byte, error) {
	h, err := asHandle(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.ref.Sharpen(p.Sigma, p.Flat, p.Jagged); err != nil {
		return nil, fmt.Errorf("vips sharpen: %w", err)
	}
	if err := h.ref.Modulate(p.Brightness, p.Saturation, 0); err != nil {
		return nil, fmt.Errorf("vips final modulate: %w", err)
	}

	switch p.Format {
	case preset.FormatPNG:
		ep := vips.NewPngExportParams()
		ep.Compression = p.Compression
		ep.StripMetadata = true
		buf, _, err := h.ref.ExportPng(ep)
		if err != nil {
			return nil, fmt.Errorf("vips png export: %w", err)
		}
		return buf, nil
	case preset.FormatWebP:
		ep := vips.NewWebpExportParams()
		ep.Quality = p.Quality
		ep.StripMetadata = true
		buf, _, err := h.ref.ExportWebp(ep)
		if err != nil {
			return nil, fmt.Errorf("vips webp export: %w", err)
		}
		return buf, nil
	default:
		ep := vips.NewJpegExportParams()
		ep.Quality = p.Quality
		ep.StripMetadata = true
		ep.OptimizeCoding = true
		buf, _, err := h.ref.ExportJpeg(ep)
		if err != nil {
			return nil, fmt.Errorf("vips jpeg export: %w", err)
		}
		return buf, nil
	}
}
