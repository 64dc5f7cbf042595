// Package detector wraps the pigo cascade classifier behind the pipeline's
// FaceDetector contract. The cascade model is process-wide, read-only state:
// it is loaded from disk at most once behind a sync.Once, so concurrent
// first requests share a single load instead of racing.
package detector

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"go.uber.org/zap"

	// Register the decoders the detection path accepts.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/rmarek/headshot-service/internal/model"
)

// Config holds the cascade parameters. Zero values are filled with the
// defaults below.
type Config struct {
	CascadePath      string
	MinSize          int
	MaxSize          int
	ShiftFactor      float64
	ScaleFactor      float64
	ClusterIoU       float64
	QualityThreshold float32
	// MaxDetectionEdge caps the pixel size detection runs at. Larger images
	// are downscaled first and the boxes mapped back to source coordinates.
	MaxDetectionEdge int
}

func (c *Config) applyDefaults() {
	if c.MinSize <= 0 {
		c.MinSize = 20
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 2000
	}
	if c.ShiftFactor <= 0 {
		c.ShiftFactor = 0.1
	}
	if c.ScaleFactor <= 0 {
		c.ScaleFactor = 1.1
	}
	if c.ClusterIoU <= 0 {
		c.ClusterIoU = 0.18
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = 5.0
	}
	if c.MaxDetectionEdge <= 0 {
		c.MaxDetectionEdge = 1400
	}
}

// Detector runs pigo face detection over raw image bytes.
type Detector struct {
	cfg    Config
	logger *zap.Logger

	once       sync.Once
	classifier *pigo.Pigo
	loadErr    error
}

// New creates a Detector. The cascade file is not touched until the first
// Detect call.
func New(cfg Config, logger *zap.Logger) *Detector {
	cfg.applyDefaults()
	return &Detector{cfg: cfg, logger: logger}
}

// load reads and unpacks the cascade exactly once. A failed load is sticky:
// every Detect call reports the same error and the pipeline falls back to
// the no-face crop strategy.
func (d *Detector) load() error {
	d.once.Do(func() {
		data, err := os.ReadFile(d.cfg.CascadePath)
		if err != nil {
			d.loadErr = fmt.Errorf("reading cascade %s: %w", d.cfg.CascadePath, err)
			return
		}
		classifier, err := pigo.NewPigo().Unpack(data)
		if err != nil {
			d.loadErr = fmt.Errorf("unpacking cascade: %w", err)
			return
		}
		d.classifier = classifier
		d.logger.Info("face cascade loaded", zap.String("path", d.cfg.CascadePath))
	})
	return d.loadErr
}

// Detect decodes the image, runs the cascade, and returns every clustered
// detection above the quality threshold as a FaceBox in source-image pixel
// coordinates. A nil slice with nil error means the image decoded fine but
// holds no detectable face.
func (d *Detector) Detect(ctx context.Context, data []byte) ([]model.FaceBox, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding for detection: %w", err)
	}

	img, scale := downscale(img, d.cfg.MaxDetectionEdge)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nrgba := image.NewNRGBA(img.Bounds())
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)

	cols := nrgba.Bounds().Dx()
	rows := nrgba.Bounds().Dy()
	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinSize,
		MaxSize:     d.cfg.MaxSize,
		ShiftFactor: d.cfg.ShiftFactor,
		ScaleFactor: d.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(nrgba),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.cfg.ClusterIoU)

	faces := toFaceBoxes(dets, d.cfg.QualityThreshold, scale, cols, rows)
	d.logger.Debug("face detection done",
		zap.Int("raw", len(dets)),
		zap.Int("kept", len(faces)),
	)
	return faces, nil
}

// downscale shrinks the image so its longer edge is at most maxEdge and
// returns the factor needed to map detection coordinates back to the
// source.
func downscale(img image.Image, maxEdge int) (image.Image, float64) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxEdge {
		return img, 1.0
	}
	scale := float64(longest) / float64(maxEdge)
	return imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos), scale
}

// toFaceBoxes converts pigo detections (center row/col + scale) into
// top-left boxes, filters by quality, rescales to source coordinates, and
// drops anything degenerate after clipping to the frame.
func toFaceBoxes(dets []pigo.Detection, qThreshold float32, scale float64, cols, rows int) []model.FaceBox {
	var faces []model.FaceBox
	for _, det := range dets {
		if det.Q < qThreshold {
			continue
		}
		x := det.Col - det.Scale/2
		y := det.Row - det.Scale/2
		box := clip(x, y, det.Scale, det.Scale, cols, rows)
		if box == nil {
			continue
		}
		if scale != 1.0 {
			box.X = int(float64(box.X) * scale)
			box.Y = int(float64(box.Y) * scale)
			box.Width = int(float64(box.Width) * scale)
			box.Height = int(float64(box.Height) * scale)
		}
		box.Confidence = det.Q
		faces = append(faces, *box)
	}
	return faces
}

// clip intersects a box with the frame, returning nil when nothing
// remains.
func clip(x, y, w, h, cols, rows int) *model.FaceBox {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > cols {
		w = cols - x
	}
	if y+h > rows {
		h = rows - y
	}
	if w <= 0 || h <= 0 || x >= cols || y >= rows {
		return nil
	}
	return &model.FaceBox{X: x, Y: y, Width: w, Height: h}
}
