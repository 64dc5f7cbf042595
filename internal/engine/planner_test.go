package engine

import (
	"math"
	"testing"

	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
)

var testCropping = preset.CroppingConfig{
	FaceDetectedSize:     0.72,
	FallbackSize:         0.82,
	FaceVerticalOffset:   0.10,
	LandscapeThreshold:   1.2,
	FallbackLandscapeTop: 0.12,
	FallbackPortraitTop:  0.08,
	TightCrop:            testThresholds,
}

func TestPlanCropFaceNotTight(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 1000}
	face := &model.FaceBox{X: 400, Y: 400, Width: 60, Height: 60}
	v := AnalyzeFace(*face, meta, testCropping.TightCrop)
	if v.IsTight {
		t.Fatal("fixture face should not be tight")
	}

	region := PlanCrop(face, meta, testCropping, &v)

	side := int(math.Round(1000 * 0.72))
	if region.Width != side || region.Height != side {
		t.Errorf("crop = %dx%d, want %dx%d", region.Width, region.Height, side, side)
	}
	// Face center (430,430), centered then pushed down by 10% of the side.
	wantLeft := 430 - side/2
	wantTop := 430 - side/2 + int(math.Round(float64(side)*0.10))
	if region.Left != wantLeft {
		t.Errorf("left = %d, want %d", region.Left, wantLeft)
	}
	if region.Top != wantTop {
		t.Errorf("top = %d, want %d", region.Top, wantTop)
	}
	if !region.Within(meta) {
		t.Errorf("region %+v out of bounds", region)
	}
}

// The tight branch uses the loose size and ignores the vertical offset so
// the wider frame stays centered on the face.
func TestPlanCropTightFaceIgnoresVerticalOffset(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 1000}
	face := &model.FaceBox{X: 187, Y: 513, Width: 327, Height: 293}
	v := AnalyzeFace(*face, meta, testCropping.TightCrop)
	if !v.IsTight {
		t.Fatal("fixture face should be tight")
	}

	region := PlanCrop(face, meta, testCropping, &v)

	side := int(math.Round(1000 * 0.95))
	if region.Width != side || region.Height != side {
		t.Errorf("crop = %dx%d, want loose %dx%d", region.Width, region.Height, side, side)
	}
	if !region.Within(meta) {
		t.Errorf("region %+v out of bounds", region)
	}
	// Face center x is 350.5; the unclamped left would be negative, so the
	// clamp must have pinned it at zero.
	if region.Left != 0 {
		t.Errorf("left = %d, want clamped 0", region.Left)
	}
}

func TestPlanCropNoFaceLandscape(t *testing.T) {
	meta := model.ImageMetadata{Width: 1600, Height: 900} // ratio 1.78 > 1.2

	region := PlanCrop(nil, meta, testCropping, nil)

	side := int(math.Round(900 * 0.82))
	if region.Width != side || region.Height != side {
		t.Errorf("crop = %dx%d, want %dx%d", region.Width, region.Height, side, side)
	}
	wantTop := int(math.Round(900 * 0.12))
	if region.Top != wantTop {
		t.Errorf("landscape top = %d, want %d", region.Top, wantTop)
	}
	wantLeft := (1600 - side) / 2
	if region.Left != wantLeft {
		t.Errorf("left = %d, want centered %d", region.Left, wantLeft)
	}
}

func TestPlanCropNoFacePortrait(t *testing.T) {
	meta := model.ImageMetadata{Width: 900, Height: 1600} // ratio 0.56

	region := PlanCrop(nil, meta, testCropping, nil)

	wantTop := int(math.Round(1600 * 0.08))
	if region.Top != wantTop {
		t.Errorf("portrait top = %d, want %d", region.Top, wantTop)
	}
	if !region.Within(meta) {
		t.Errorf("region %+v out of bounds", region)
	}
}

func TestPlanCropFaceNearCorner(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 800}
	// Face in the bottom-right corner. The nominal crop overruns both
	// edges; clamping must pull it back without failing.
	face := &model.FaceBox{X: 940, Y: 740, Width: 50, Height: 50}
	v := AnalyzeFace(*face, meta, testCropping.TightCrop)

	region := PlanCrop(face, meta, testCropping, &v)
	if !region.Within(meta) {
		t.Errorf("region %+v out of bounds for %+v", region, meta)
	}
}

// The §3 invariants must hold for every combination the planner can see,
// including degenerate one-pixel images and faces larger than the frame.
func TestPlanCropInvariants(t *testing.T) {
	metas := []model.ImageMetadata{
		{Width: 1, Height: 1},
		{Width: 10, Height: 2000},
		{Width: 2000, Height: 10},
		{Width: 640, Height: 480},
		{Width: 480, Height: 640},
		{Width: 3000, Height: 3000},
	}
	faces := []*model.FaceBox{
		nil,
		{X: 0, Y: 0, Width: 5, Height: 5},
		{X: -10, Y: -10, Width: 50, Height: 50},
		{X: 1990, Y: 1990, Width: 100, Height: 100},
		{X: 100, Y: 100, Width: 5000, Height: 5000},
	}

	for _, meta := range metas {
		for _, face := range faces {
			var verdict *model.TightCropVerdict
			if face != nil {
				v := AnalyzeFace(*face, meta, testCropping.TightCrop)
				verdict = &v
			}
			region := PlanCrop(face, meta, testCropping, verdict)
			if !region.Within(meta) {
				t.Errorf("invariant violation: meta=%+v face=%+v region=%+v", meta, face, region)
			}
		}
	}
}
