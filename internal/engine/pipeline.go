package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
)

// Stage names used in error reporting and logs.
const (
	StageDecode = "decode"
	StageCrop   = "crop"
	StageColor  = "color"
	StageFinish = "finish"
)

// StageError marks a fatal pipeline failure with the stage it happened in.
// The orchestrator never retries; the first stage failure aborts the whole
// request.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FaceDetector is the face-detection collaborator. Detect returns every
// usable face box found in the image; the orchestrator keeps the largest.
// Errors are recovered locally: a failed detection degrades to the no-face
// crop strategy instead of failing the request.
type FaceDetector interface {
	Detect(ctx context.Context, data []byte) ([]model.FaceBox, error)
}

// Image is an opaque handle owned by the transform collaborator. The
// orchestrator holds exactly one live handle at a time and closes it when
// the pipeline ends.
type Image interface {
	Close()
}

// ColorParams carries the color-correct stage inputs. Brightness is the
// multiplier chosen by the luminance classifier.
type ColorParams struct {
	Brightness float64
	Saturation float64
	Hue        float64
	LinearA    float64
	LinearB    float64
	Gamma      float64
}

// FinalParams carries the final-adjust stage inputs: sharpening, the last
// brightness/saturation nudges, and the encode settings.
type FinalParams struct {
	Sigma       float64
	Flat        float64
	Jagged      float64
	Brightness  float64
	Saturation  float64
	Format      string
	Quality     int
	Compression int
}

// Transformer is the pixel-work collaborator. Operations may modify the
// handle in place; the returned Image supersedes the input either way.
type Transformer interface {
	Decode(ctx context.Context, data []byte) (Image, model.ImageMetadata, error)
	ExtractAndResize(ctx context.Context, img Image, region model.CropRegion, size int) (Image, error)
	AverageLuminance(ctx context.Context, img Image) (float64, error)
	ModulateAndContrast(ctx context.Context, img Image, p ColorParams) (Image, error)
	SharpenAndEncode(ctx context.Context, img Image, p FinalParams) ([]byte, error)
}

// Report collects the decisions made for one request, for logging and job
// bookkeeping. It is diagnostic output only; nothing reads it back into the
// pipeline.
type Report struct {
	Meta                 model.ImageMetadata
	Face                 *model.FaceBox
	Verdict              *model.TightCropVerdict
	Region               model.CropRegion
	AvgLuminance         float64
	BrightnessMultiplier float64
}

// Result is the pipeline output: encoded bytes plus the decision report.
type Result struct {
	Output []byte
	Report Report
}

// Orchestrator runs the fixed crop → color-correct → final-adjust sequence
// for one request at a time. It holds no per-request state, so a single
// instance serves concurrent requests.
type Orchestrator struct {
	detector  FaceDetector
	transform Transformer
	logger    *zap.Logger
}

// NewOrchestrator wires the two collaborators.
func NewOrchestrator(detector FaceDetector, transform Transformer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		detector:  detector,
		transform: transform,
		logger:    logger,
	}
}

// Process runs the whole pipeline over raw image bytes with an already
// resolved config. Config resolution happens at the boundary so an
// incomplete config aborts before any pixel work.
func (o *Orchestrator) Process(ctx context.Context, raw []byte, cfg preset.ResolvedConfig) (*Result, error) {
	img, meta, err := o.transform.Decode(ctx, raw)
	if err != nil {
		return nil, &StageError{Stage: StageDecode, Err: err}
	}
	defer func() {
		if img != nil {
			img.Close()
		}
	}()

	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %dx%d", model.ErrInvalidMetadata, meta.Width, meta.Height)
	}

	report := Report{Meta: meta}

	// Detection failures never fail the request; they switch the planner to
	// the no-face branch.
	faces, err := o.detector.Detect(ctx, raw)
	if err != nil {
		o.logger.Warn("face detection unavailable, using fallback crop", zap.Error(err))
	}
	report.Face = model.LargestFace(faces)

	if report.Face != nil {
		v := AnalyzeFace(*report.Face, meta, cfg.Cropping.TightCrop)
		report.Verdict = &v
	}
	report.Region = PlanCrop(report.Face, meta, cfg.Cropping, report.Verdict)

	o.logger.Debug("crop planned",
		zap.Bool("face_found", report.Face != nil),
		zap.Bool("tight", report.Verdict != nil && report.Verdict.IsTight),
		zap.Int("left", report.Region.Left),
		zap.Int("top", report.Region.Top),
		zap.Int("width", report.Region.Width),
		zap.Int("height", report.Region.Height),
	)

	next, err := o.transform.ExtractAndResize(ctx, img, report.Region, cfg.Output.Size)
	if err != nil {
		return nil, &StageError{Stage: StageCrop, Err: err}
	}
	img = replace(img, next)

	report.AvgLuminance, err = o.transform.AverageLuminance(ctx, img)
	if err != nil {
		return nil, &StageError{Stage: StageColor, Err: err}
	}
	report.BrightnessMultiplier = BrightnessMultiplier(report.AvgLuminance, cfg.Brightness)

	next, err = o.transform.ModulateAndContrast(ctx, img, ColorParams{
		Brightness: report.BrightnessMultiplier,
		Saturation: cfg.Color.Saturation,
		Hue:        cfg.Color.Hue,
		LinearA:    cfg.Contrast.LinearA,
		LinearB:    cfg.Contrast.LinearB,
		Gamma:      cfg.Contrast.Gamma,
	})
	if err != nil {
		return nil, &StageError{Stage: StageColor, Err: err}
	}
	img = replace(img, next)

	out, err := o.transform.SharpenAndEncode(ctx, img, FinalParams{
		Sigma:       cfg.Sharpening.Sigma,
		Flat:        cfg.Sharpening.Flat,
		Jagged:      cfg.Sharpening.Jagged,
		Brightness:  cfg.Brightness.Final,
		Saturation:  cfg.Color.FinalSaturation,
		Format:      cfg.Output.Format,
		Quality:     cfg.Output.Quality,
		Compression: cfg.Output.Compression,
	})
	if err != nil {
		return nil, &StageError{Stage: StageFinish, Err: err}
	}

	return &Result{Output: out, Report: report}, nil
}

// replace swaps the live handle for the one a stage returned, closing the
// old handle when the stage allocated a new one.
func replace(prev, next Image) Image {
	if next != prev && prev != nil {
		prev.Close()
	}
	return next
}
