// Package preset holds the layered enhancement configuration: published
// presets, per-request overrides, and the merge that resolves them into the
// single parameter set a pipeline run consumes.
package preset

import (
	"errors"
	"fmt"
)

// ErrConfigIncomplete is returned when a required field is still unset after
// merging preset and overrides. Presets ship fully populated, so this
// normally indicates a broken preset definition.
var ErrConfigIncomplete = errors.New("config incomplete")

// ThresholdConfig controls tight-crop detection. A tight crop means the
// source image is already closely framed around the face, so the planner
// loosens the crop instead of zooming further in.
type ThresholdConfig struct {
	Enabled          bool    `json:"enabled"`
	FaceToImageRatio float64 `json:"face_to_image_ratio"`
	FaceEdgeDistance float64 `json:"face_edge_distance"`
	LooseCropSize    float64 `json:"loose_crop_size"`
	// SkipCropSize is reserved for a future "no crop" outcome. It is
	// validated and carried but no planner branch selects it yet.
	SkipCropSize float64 `json:"skip_crop_size"`
}

// CroppingConfig drives the crop region planner.
type CroppingConfig struct {
	FaceDetectedSize     float64         `json:"face_detected_size"`
	FallbackSize         float64         `json:"fallback_size"`
	FaceVerticalOffset   float64         `json:"face_vertical_offset"`
	LandscapeThreshold   float64         `json:"landscape_threshold"`
	FallbackLandscapeTop float64         `json:"fallback_landscape_top"`
	FallbackPortraitTop  float64         `json:"fallback_portrait_top"`
	TightCrop            ThresholdConfig `json:"tight_crop"`
}

// BrightnessConfig selects a brightness multiplier from the average
// luminance of the cropped image, plus a final nudge applied at the end.
// Thresholds are on the 0..255 luminance scale.
type BrightnessConfig struct {
	Base             float64 `json:"base"`
	DarkImages       float64 `json:"dark_images"`
	MediumDarkImages float64 `json:"medium_dark_images"`
	BrightImages     float64 `json:"bright_images"`
	DarkThreshold    float64 `json:"dark_threshold"`
	MediumThreshold  float64 `json:"medium_threshold"`
	BrightThreshold  float64 `json:"bright_threshold"`
	Final            float64 `json:"final"`
}

// ColorConfig holds saturation and hue modulation. Saturation values are
// multipliers (1.0 = unchanged), hue is degrees of rotation.
type ColorConfig struct {
	Saturation      float64 `json:"saturation"`
	Hue             float64 `json:"hue"`
	FinalSaturation float64 `json:"final_saturation"`
}

// ContrastConfig holds the linear contrast (out = a*in + b) and gamma
// applied during the color-correct stage.
type ContrastConfig struct {
	LinearA float64 `json:"linear_a"`
	LinearB float64 `json:"linear_b"`
	Gamma   float64 `json:"gamma"`
}

// SharpeningConfig maps directly onto the vips sharpen parameters.
type SharpeningConfig struct {
	Sigma  float64 `json:"sigma"`
	Flat   float64 `json:"flat"`
	Jagged float64 `json:"jagged"`
}

// OutputConfig controls the final encode. Quality applies to JPEG and WebP,
// Compression to PNG.
type OutputConfig struct {
	Size        int    `json:"size"`
	Format      string `json:"format"`
	Quality     int    `json:"quality"`
	Compression int    `json:"compression"`
}

// ResolvedConfig is the single authoritative parameter set for one request.
// It is never mutated after Resolve returns it.
type ResolvedConfig struct {
	Name       string           `json:"name"`
	Cropping   CroppingConfig   `json:"cropping"`
	Brightness BrightnessConfig `json:"brightness"`
	Color      ColorConfig      `json:"color"`
	Contrast   ContrastConfig   `json:"contrast"`
	Sharpening SharpeningConfig `json:"sharpening"`
	Output     OutputConfig     `json:"output"`
}

// Validate checks that every field a pipeline run depends on is populated.
// Offsets and additive terms may legitimately be zero or negative and are
// not checked; everything here must be strictly positive (or, for format,
// a known encoder).
func (c ResolvedConfig) Validate() error {
	required := []struct {
		name  string
		value float64
	}{
		{"cropping.face_detected_size", c.Cropping.FaceDetectedSize},
		{"cropping.fallback_size", c.Cropping.FallbackSize},
		{"cropping.landscape_threshold", c.Cropping.LandscapeThreshold},
		{"cropping.tight_crop.face_to_image_ratio", c.Cropping.TightCrop.FaceToImageRatio},
		{"cropping.tight_crop.face_edge_distance", c.Cropping.TightCrop.FaceEdgeDistance},
		{"cropping.tight_crop.loose_crop_size", c.Cropping.TightCrop.LooseCropSize},
		{"cropping.tight_crop.skip_crop_size", c.Cropping.TightCrop.SkipCropSize},
		{"brightness.base", c.Brightness.Base},
		{"brightness.dark_images", c.Brightness.DarkImages},
		{"brightness.medium_dark_images", c.Brightness.MediumDarkImages},
		{"brightness.bright_images", c.Brightness.BrightImages},
		{"brightness.dark_threshold", c.Brightness.DarkThreshold},
		{"brightness.medium_threshold", c.Brightness.MediumThreshold},
		{"brightness.bright_threshold", c.Brightness.BrightThreshold},
		{"brightness.final", c.Brightness.Final},
		{"color.saturation", c.Color.Saturation},
		{"color.final_saturation", c.Color.FinalSaturation},
		{"contrast.linear_a", c.Contrast.LinearA},
		{"contrast.gamma", c.Contrast.Gamma},
		{"sharpening.sigma", c.Sharpening.Sigma},
		{"sharpening.flat", c.Sharpening.Flat},
		{"sharpening.jagged", c.Sharpening.Jagged},
		{"output.size", float64(c.Output.Size)},
		{"output.quality", float64(c.Output.Quality)},
	}
	for _, f := range required {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s", ErrConfigIncomplete, f.name)
		}
	}
	switch c.Output.Format {
	case FormatJPEG, FormatPNG, FormatWebP:
	default:
		return fmt.Errorf("%w: output.format %q", ErrConfigIncomplete, c.Output.Format)
	}
	return nil
}

// Supported output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)
