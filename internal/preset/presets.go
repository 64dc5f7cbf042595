package preset

import "sort"

// DefaultName is the preset used when a request names no preset, or names
// one that does not exist. Unknown names fall back silently rather than
// erroring so stale clients keep working.
const DefaultName = "natural"

// presets is the registry of published parameter sets. Every preset must be
// fully populated; Resolve validates the result of every merge against
// ResolvedConfig.Validate, so an incomplete preset fails the first request
// that touches it rather than producing a half-configured pipeline.
var presets = map[string]ResolvedConfig{
	"natural": {
		Name: "natural",
		Cropping: CroppingConfig{
			FaceDetectedSize:     0.72,
			FallbackSize:         0.82,
			FaceVerticalOffset:   0.10,
			LandscapeThreshold:   1.2,
			FallbackLandscapeTop: 0.12,
			FallbackPortraitTop:  0.08,
			TightCrop: ThresholdConfig{
				Enabled:          true,
				FaceToImageRatio: 0.03,
				FaceEdgeDistance: 0.20,
				LooseCropSize:    0.95,
				SkipCropSize:     0.98,
			},
		},
		Brightness: BrightnessConfig{
			Base:             1.0,
			DarkImages:       1.25,
			MediumDarkImages: 1.12,
			BrightImages:     0.95,
			DarkThreshold:    60,
			MediumThreshold:  100,
			BrightThreshold:  180,
			Final:            1.02,
		},
		Color: ColorConfig{
			Saturation:      1.08,
			Hue:             0,
			FinalSaturation: 1.02,
		},
		Contrast: ContrastConfig{
			LinearA: 1.06,
			LinearB: -4,
			Gamma:   1.05,
		},
		Sharpening: SharpeningConfig{
			Sigma:  0.8,
			Flat:   1.0,
			Jagged: 2.0,
		},
		Output: OutputConfig{
			Size:        1024,
			Format:      FormatJPEG,
			Quality:     88,
			Compression: 6,
		},
	},
	"studio": {
		Name: "studio",
		Cropping: CroppingConfig{
			FaceDetectedSize:     0.66,
			FallbackSize:         0.78,
			FaceVerticalOffset:   0.12,
			LandscapeThreshold:   1.2,
			FallbackLandscapeTop: 0.10,
			FallbackPortraitTop:  0.06,
			TightCrop: ThresholdConfig{
				Enabled:          true,
				FaceToImageRatio: 0.035,
				FaceEdgeDistance: 0.18,
				LooseCropSize:    0.93,
				SkipCropSize:     0.97,
			},
		},
		Brightness: BrightnessConfig{
			Base:             1.04,
			DarkImages:       1.30,
			MediumDarkImages: 1.16,
			BrightImages:     0.96,
			DarkThreshold:    55,
			MediumThreshold:  95,
			BrightThreshold:  185,
			Final:            1.03,
		},
		Color: ColorConfig{
			Saturation:      1.05,
			Hue:             0,
			FinalSaturation: 1.0,
		},
		Contrast: ContrastConfig{
			LinearA: 1.12,
			LinearB: -8,
			Gamma:   1.08,
		},
		Sharpening: SharpeningConfig{
			Sigma:  1.0,
			Flat:   1.0,
			Jagged: 2.4,
		},
		Output: OutputConfig{
			Size:        1200,
			Format:      FormatJPEG,
			Quality:     92,
			Compression: 6,
		},
	},
	"vivid": {
		Name: "vivid",
		Cropping: CroppingConfig{
			FaceDetectedSize:     0.72,
			FallbackSize:         0.82,
			FaceVerticalOffset:   0.10,
			LandscapeThreshold:   1.2,
			FallbackLandscapeTop: 0.12,
			FallbackPortraitTop:  0.08,
			TightCrop: ThresholdConfig{
				Enabled:          true,
				FaceToImageRatio: 0.03,
				FaceEdgeDistance: 0.20,
				LooseCropSize:    0.95,
				SkipCropSize:     0.98,
			},
		},
		Brightness: BrightnessConfig{
			Base:             1.02,
			DarkImages:       1.28,
			MediumDarkImages: 1.14,
			BrightImages:     0.94,
			DarkThreshold:    60,
			MediumThreshold:  100,
			BrightThreshold:  180,
			Final:            1.04,
		},
		Color: ColorConfig{
			Saturation:      1.25,
			Hue:             0,
			FinalSaturation: 1.06,
		},
		Contrast: ContrastConfig{
			LinearA: 1.10,
			LinearB: -6,
			Gamma:   1.06,
		},
		Sharpening: SharpeningConfig{
			Sigma:  1.2,
			Flat:   1.0,
			Jagged: 2.6,
		},
		Output: OutputConfig{
			Size:        1024,
			Format:      FormatJPEG,
			Quality:     90,
			Compression: 6,
		},
	},
	"lowkey": {
		Name: "lowkey",
		Cropping: CroppingConfig{
			FaceDetectedSize:     0.76,
			FallbackSize:         0.85,
			FaceVerticalOffset:   0.08,
			LandscapeThreshold:   1.2,
			FallbackLandscapeTop: 0.14,
			FallbackPortraitTop:  0.10,
			TightCrop: ThresholdConfig{
				Enabled:          true,
				FaceToImageRatio: 0.03,
				FaceEdgeDistance: 0.22,
				LooseCropSize:    0.96,
				SkipCropSize:     0.99,
			},
		},
		Brightness: BrightnessConfig{
			Base:             0.96,
			DarkImages:       1.10,
			MediumDarkImages: 1.04,
			BrightImages:     0.90,
			DarkThreshold:    50,
			MediumThreshold:  90,
			BrightThreshold:  170,
			Final:            0.99,
		},
		Color: ColorConfig{
			Saturation:      0.92,
			Hue:             0,
			FinalSaturation: 0.98,
		},
		Contrast: ContrastConfig{
			LinearA: 1.04,
			LinearB: -2,
			Gamma:   0.97,
		},
		Sharpening: SharpeningConfig{
			Sigma:  0.7,
			Flat:   1.0,
			Jagged: 1.8,
		},
		Output: OutputConfig{
			Size:        1024,
			Format:      FormatJPEG,
			Quality:     88,
			Compression: 6,
		},
	},
}

// Get returns the named preset, falling back to the default for unknown or
// empty names. The returned value is a copy; callers may not reach the
// registry through it.
func Get(name string) ResolvedConfig {
	if cfg, ok := presets[name]; ok {
		return cfg
	}
	return presets[DefaultName]
}

// Exists reports whether a preset with the given name is published.
func Exists(name string) bool {
	_, ok := presets[name]
	return ok
}

// Names returns the sorted list of published preset names.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
