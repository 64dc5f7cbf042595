package preset

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Overrides is a partial config mirroring the ResolvedConfig groups. Every
// leaf is a pointer so "absent" and "explicitly zero" stay distinguishable:
// nil fields keep the preset value, non-nil fields replace it.
type Overrides struct {
	Cropping   *CroppingOverride   `json:"cropping,omitempty"`
	Brightness *BrightnessOverride `json:"brightness,omitempty"`
	Color      *ColorOverride      `json:"color,omitempty"`
	Contrast   *ContrastOverride   `json:"contrast,omitempty"`
	Sharpening *SharpeningOverride `json:"sharpening,omitempty"`
	Output     *OutputOverride     `json:"output,omitempty"`
}

// ThresholdOverride is the second-level partial for the one nested group
// that deep-merges: cropping.tight_crop.
type ThresholdOverride struct {
	Enabled          *bool    `json:"enabled,omitempty"`
	FaceToImageRatio *float64 `json:"face_to_image_ratio,omitempty"`
	FaceEdgeDistance *float64 `json:"face_edge_distance,omitempty"`
	LooseCropSize    *float64 `json:"loose_crop_size,omitempty"`
	SkipCropSize     *float64 `json:"skip_crop_size,omitempty"`
}

type CroppingOverride struct {
	FaceDetectedSize     *float64           `json:"face_detected_size,omitempty"`
	FallbackSize         *float64           `json:"fallback_size,omitempty"`
	FaceVerticalOffset   *float64           `json:"face_vertical_offset,omitempty"`
	LandscapeThreshold   *float64           `json:"landscape_threshold,omitempty"`
	FallbackLandscapeTop *float64           `json:"fallback_landscape_top,omitempty"`
	FallbackPortraitTop  *float64           `json:"fallback_portrait_top,omitempty"`
	TightCrop            *ThresholdOverride `json:"tight_crop,omitempty"`
}

type BrightnessOverride struct {
	Base             *float64 `json:"base,omitempty"`
	DarkImages       *float64 `json:"dark_images,omitempty"`
	MediumDarkImages *float64 `json:"medium_dark_images,omitempty"`
	BrightImages     *float64 `json:"bright_images,omitempty"`
	DarkThreshold    *float64 `json:"dark_threshold,omitempty"`
	MediumThreshold  *float64 `json:"medium_threshold,omitempty"`
	BrightThreshold  *float64 `json:"bright_threshold,omitempty"`
	Final            *float64 `json:"final,omitempty"`
}

type ColorOverride struct {
	Saturation      *float64 `json:"saturation,omitempty"`
	Hue             *float64 `json:"hue,omitempty"`
	FinalSaturation *float64 `json:"final_saturation,omitempty"`
}

type ContrastOverride struct {
	LinearA *float64 `json:"linear_a,omitempty"`
	LinearB *float64 `json:"linear_b,omitempty"`
	Gamma   *float64 `json:"gamma,omitempty"`
}

type SharpeningOverride struct {
	Sigma  *float64 `json:"sigma,omitempty"`
	Flat   *float64 `json:"flat,omitempty"`
	Jagged *float64 `json:"jagged,omitempty"`
}

type OutputOverride struct {
	Size        *int    `json:"size,omitempty"`
	Format      *string `json:"format,omitempty"`
	Quality     *int    `json:"quality,omitempty"`
	Compression *int    `json:"compression,omitempty"`
}

// Empty reports whether the overrides carry no values at all. Requests with
// empty overrides behave exactly like requests without overrides, which also
// keeps them cacheable.
func (o *Overrides) Empty() bool {
	if o == nil {
		return true
	}
	return o.Cropping == nil && o.Brightness == nil && o.Color == nil &&
		o.Contrast == nil && o.Sharpening == nil && o.Output == nil
}

// knownGroups are the top-level override keys Decode accepts. Anything else
// in the payload is reported back for logging but never fails the request.
var knownGroups = map[string]struct{}{
	"cropping":   {},
	"brightness": {},
	"color":      {},
	"contrast":   {},
	"sharpening": {},
	"output":     {},
}

// Decode parses a raw JSON override payload. Unknown top-level keys are
// logged at warn level and dropped, so malformed clients degrade loudly in
// the logs instead of silently changing behavior. Malformed JSON is an
// error: a payload we cannot parse at all is rejected at the boundary.
func Decode(raw []byte, logger *zap.Logger) (*Overrides, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	for key := range top {
		if _, ok := knownGroups[key]; !ok {
			logger.Warn("ignoring unknown override field", zap.String("field", key))
			delete(top, key)
		}
	}

	filtered, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("re-encoding overrides: %w", err)
	}

	var ov Overrides
	if err := json.Unmarshal(filtered, &ov); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}
	return &ov, nil
}

// Resolve merges overrides onto the named preset and validates the result.
// The merge is shallow per group, except cropping.tight_crop which merges a
// second level down so a partial threshold override cannot erase untouched
// threshold fields. Resolve is pure: the registry is never mutated and
// identical inputs always produce identical output.
func Resolve(name string, ov *Overrides) (ResolvedConfig, error) {
	cfg := Get(name)

	if ov != nil {
		applyCropping(&cfg.Cropping, ov.Cropping)
		applyBrightness(&cfg.Brightness, ov.Brightness)
		applyColor(&cfg.Color, ov.Color)
		applyContrast(&cfg.Contrast, ov.Contrast)
		applySharpening(&cfg.Sharpening, ov.Sharpening)
		applyOutput(&cfg.Output, ov.Output)
	}

	if err := cfg.Validate(); err != nil {
		return ResolvedConfig{}, err
	}
	return cfg, nil
}

func applyCropping(dst *CroppingConfig, ov *CroppingOverride) {
	if ov == nil {
		return
	}
	setF(&dst.FaceDetectedSize, ov.FaceDetectedSize)
	setF(&dst.FallbackSize, ov.FallbackSize)
	setF(&dst.FaceVerticalOffset, ov.FaceVerticalOffset)
	setF(&dst.LandscapeThreshold, ov.LandscapeThreshold)
	setF(&dst.FallbackLandscapeTop, ov.FallbackLandscapeTop)
	setF(&dst.FallbackPortraitTop, ov.FallbackPortraitTop)
	if t := ov.TightCrop; t != nil {
		if t.Enabled != nil {
			dst.TightCrop.Enabled = *t.Enabled
		}
		setF(&dst.TightCrop.FaceToImageRatio, t.FaceToImageRatio)
		setF(&dst.TightCrop.FaceEdgeDistance, t.FaceEdgeDistance)
		setF(&dst.TightCrop.LooseCropSize, t.LooseCropSize)
		setF(&dst.TightCrop.SkipCropSize, t.SkipCropSize)
	}
}

func applyBrightness(dst *BrightnessConfig, ov *BrightnessOverride) {
	if ov == nil {
		return
	}
	setF(&dst.Base, ov.Base)
	setF(&dst.DarkImages, ov.DarkImages)
	setF(&dst.MediumDarkImages, ov.MediumDarkImages)
	setF(&dst.BrightImages, ov.BrightImages)
	setF(&dst.DarkThreshold, ov.DarkThreshold)
	setF(&dst.MediumThreshold, ov.MediumThreshold)
	setF(&dst.BrightThreshold, ov.BrightThreshold)
	setF(&dst.Final, ov.Final)
}

func applyColor(dst *ColorConfig, ov *ColorOverride) {
	if ov == nil {
		return
	}
	setF(&dst.Saturation, ov.Saturation)
	setF(&dst.Hue, ov.Hue)
	setF(&dst.FinalSaturation, ov.FinalSaturation)
}

func applyContrast(dst *ContrastConfig, ov *ContrastOverride) {
	if ov == nil {
		return
	}
	setF(&dst.LinearA, ov.LinearA)
	setF(&dst.LinearB, ov.LinearB)
	setF(&dst.Gamma, ov.Gamma)
}

func applySharpening(dst *SharpeningConfig, ov *SharpeningOverride) {
	if ov == nil {
		return
	}
	setF(&dst.Sigma, ov.Sigma)
	setF(&dst.Flat, ov.Flat)
	setF(&dst.Jagged, ov.Jagged)
}

func applyOutput(dst *OutputConfig, ov *OutputOverride) {
	if ov == nil {
		return
	}
	if ov.Size != nil {
		dst.Size = *ov.Size
	}
	if ov.Format != nil {
		dst.Format = *ov.Format
	}
	if ov.Quality != nil {
		dst.Quality = *ov.Quality
	}
	if ov.Compression != nil {
		dst.Compression = *ov.Compression
	}
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
