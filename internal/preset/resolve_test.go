package preset

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func f(v float64) *float64 { return &v }

func TestResolveNoOverridesEqualsPreset(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(name, nil)
			if err != nil {
				t.Fatalf("Resolve(%q, nil): %v", name, err)
			}
			if !reflect.DeepEqual(got, Get(name)) {
				t.Errorf("Resolve(%q, nil) differs from stored preset", name)
			}
		})
	}
}

func TestResolveUnknownNameFallsBack(t *testing.T) {
	got, err := Resolve("no-such-preset", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name != DefaultName {
		t.Errorf("fallback preset = %q, want %q", got.Name, DefaultName)
	}

	got, err = Resolve("", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name != DefaultName {
		t.Errorf("empty name preset = %q, want %q", got.Name, DefaultName)
	}
}

func TestResolveShallowGroupMerge(t *testing.T) {
	ov := &Overrides{
		Brightness: &BrightnessOverride{DarkImages: f(1.5)},
		Color:      &ColorOverride{Saturation: f(1.4)},
	}
	got, err := Resolve(DefaultName, ov)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	base := Get(DefaultName)
	if got.Brightness.DarkImages != 1.5 {
		t.Errorf("dark_images = %v, want 1.5", got.Brightness.DarkImages)
	}
	if got.Brightness.Base != base.Brightness.Base {
		t.Errorf("untouched brightness.base changed: %v", got.Brightness.Base)
	}
	if got.Color.Saturation != 1.4 {
		t.Errorf("saturation = %v, want 1.4", got.Color.Saturation)
	}
	if got.Color.FinalSaturation != base.Color.FinalSaturation {
		t.Errorf("untouched color.final_saturation changed")
	}
	// Groups without overrides stay byte-for-byte equal to the preset.
	if !reflect.DeepEqual(got.Sharpening, base.Sharpening) {
		t.Errorf("sharpening group changed without an override")
	}
}

// A partial tight-crop override must leave the other threshold fields
// untouched: the cropping group is the one place a second-level merge runs.
func TestResolveDeepMergeTightCrop(t *testing.T) {
	ov := &Overrides{
		Cropping: &CroppingOverride{
			TightCrop: &ThresholdOverride{LooseCropSize: f(0.98)},
		},
	}
	got, err := Resolve(DefaultName, ov)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	base := Get(DefaultName)
	if got.Cropping.TightCrop.LooseCropSize != 0.98 {
		t.Errorf("loose_crop_size = %v, want 0.98", got.Cropping.TightCrop.LooseCropSize)
	}
	if got.Cropping.TightCrop.FaceToImageRatio != base.Cropping.TightCrop.FaceToImageRatio {
		t.Errorf("face_to_image_ratio erased by partial override")
	}
	if got.Cropping.TightCrop.FaceEdgeDistance != base.Cropping.TightCrop.FaceEdgeDistance {
		t.Errorf("face_edge_distance erased by partial override")
	}
	if !got.Cropping.TightCrop.Enabled {
		t.Errorf("enabled flag erased by partial override")
	}
	if got.Cropping.FaceDetectedSize != base.Cropping.FaceDetectedSize {
		t.Errorf("sibling cropping field changed")
	}
}

func TestResolveIsPure(t *testing.T) {
	ov := &Overrides{Brightness: &BrightnessOverride{Base: f(1.3)}}

	first, err := Resolve(DefaultName, ov)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := Resolve(DefaultName, ov)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different outputs")
	}

	// The registry must be untouched by previous merges.
	clean, err := Resolve(DefaultName, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if clean.Brightness.Base == 1.3 {
		t.Errorf("override leaked into the stored preset")
	}
}

func TestResolveIncompleteConfig(t *testing.T) {
	zero := 0.0
	ov := &Overrides{Sharpening: &SharpeningOverride{Sigma: &zero}}
	_, err := Resolve(DefaultName, ov)
	if err == nil {
		t.Fatal("expected ErrConfigIncomplete")
	}
}

func TestResolveInvalidOutputFormat(t *testing.T) {
	bad := "tiff"
	ov := &Overrides{Output: &OutputOverride{Format: &bad}}
	if _, err := Resolve(DefaultName, ov); err == nil {
		t.Fatal("expected error for unsupported output format")
	}
}

func TestDecodeDropsUnknownFields(t *testing.T) {
	logger := zap.NewNop()
	raw := []byte(`{"brightness":{"base":1.1},"watermark":{"text":"x"},"color":{"hue":3}}`)

	ov, err := Decode(raw, logger)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ov.Brightness == nil || ov.Brightness.Base == nil || *ov.Brightness.Base != 1.1 {
		t.Errorf("known brightness field lost")
	}
	if ov.Color == nil || ov.Color.Hue == nil || *ov.Color.Hue != 3 {
		t.Errorf("known color field lost")
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"brightness":`), zap.NewNop()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	ov, err := Decode(nil, zap.NewNop())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ov != nil {
		t.Errorf("expected nil overrides for empty payload")
	}
	if !ov.Empty() {
		t.Errorf("nil overrides should report Empty")
	}
}

func TestOverridesEmpty(t *testing.T) {
	if !(&Overrides{}).Empty() {
		t.Error("zero-value overrides should be empty")
	}
	if (&Overrides{Color: &ColorOverride{}}).Empty() {
		t.Error("overrides with a group present should not be empty")
	}
}

func TestAllPresetsValidate(t *testing.T) {
	for _, name := range Names() {
		if err := Get(name).Validate(); err != nil {
			t.Errorf("preset %q incomplete: %v", name, err)
		}
	}
}
