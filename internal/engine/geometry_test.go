package engine

import (
	"math"
	"testing"

	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
)

var testThresholds = preset.ThresholdConfig{
	Enabled:          true,
	FaceToImageRatio: 0.03,
	FaceEdgeDistance: 0.20,
	LooseCropSize:    0.95,
	SkipCropSize:     0.98,
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// Small centered face in a 1000x1000 image: ratio 0.36%, min edge distance
// 0.43, comfortably not tight.
func TestAnalyzeFaceSmallCenteredFace(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 1000}
	face := model.FaceBox{X: 400, Y: 400, Width: 60, Height: 60}

	v := AnalyzeFace(face, meta, testThresholds)

	if !almostEqual(v.FaceRatio, 0.0036) {
		t.Errorf("face ratio = %v, want 0.0036", v.FaceRatio)
	}
	if !almostEqual(v.EdgeLeft, 0.43) || !almostEqual(v.EdgeRight, 0.57) {
		t.Errorf("horizontal distances = %v/%v, want 0.43/0.57", v.EdgeLeft, v.EdgeRight)
	}
	if !almostEqual(v.EdgeTop, 0.43) || !almostEqual(v.EdgeBottom, 0.57) {
		t.Errorf("vertical distances = %v/%v, want 0.43/0.57", v.EdgeTop, v.EdgeBottom)
	}
	if !almostEqual(v.MinEdgeDistance, 0.43) {
		t.Errorf("min edge distance = %v, want 0.43", v.MinEdgeDistance)
	}
	if v.IsTight {
		t.Error("verdict should not be tight")
	}
}

// Large face: area 95781 of 1,000,000 → ratio ~9.58%, tight regardless of
// edge distances.
func TestAnalyzeFaceLargeFaceIsTight(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 1000}
	face := model.FaceBox{X: 187, Y: 513, Width: 327, Height: 293}

	v := AnalyzeFace(face, meta, testThresholds)

	if !almostEqual(v.FaceRatio, 0.095781) {
		t.Errorf("face ratio = %v, want 0.095781", v.FaceRatio)
	}
	if !v.IsTight {
		t.Error("verdict should be tight")
	}
}

func TestAnalyzeFaceEdgeProximityIsTight(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 1000}
	// Tiny face hugging the left edge: ratio is negligible but the center
	// sits at x=0.06.
	face := model.FaceBox{X: 40, Y: 480, Width: 40, Height: 40}

	v := AnalyzeFace(face, meta, testThresholds)
	if !almostEqual(v.MinEdgeDistance, 0.06) {
		t.Errorf("min edge distance = %v, want 0.06", v.MinEdgeDistance)
	}
	if !v.IsTight {
		t.Error("face near the edge should be tight")
	}
}

func TestAnalyzeFaceDisabledNeverTight(t *testing.T) {
	disabled := testThresholds
	disabled.Enabled = false

	meta := model.ImageMetadata{Width: 1000, Height: 1000}
	face := model.FaceBox{X: 187, Y: 513, Width: 327, Height: 293}

	v := AnalyzeFace(face, meta, disabled)
	if v.IsTight {
		t.Error("disabled detection must never report tight")
	}
	// Metrics are still computed for diagnostics.
	if v.FaceRatio == 0 || v.MinEdgeDistance == 0 {
		t.Error("metrics should still be populated when detection is disabled")
	}
}

// Growing the face while its center stays put must never flip the verdict
// from tight back to not-tight.
func TestAnalyzeFaceRatioMonotonic(t *testing.T) {
	meta := model.ImageMetadata{Width: 1000, Height: 1000}

	wasTight := false
	for size := 20; size <= 600; size += 20 {
		face := model.FaceBox{
			X:      500 - size/2,
			Y:      500 - size/2,
			Width:  size,
			Height: size,
		}
		v := AnalyzeFace(face, meta, testThresholds)
		if wasTight && !v.IsTight {
			t.Fatalf("verdict flipped tight→not-tight at size %d", size)
		}
		wasTight = v.IsTight
	}
	if !wasTight {
		t.Error("largest face should have ended tight")
	}
}

func TestAnalyzeFaceNonSquareImage(t *testing.T) {
	meta := model.ImageMetadata{Width: 1600, Height: 900}
	face := model.FaceBox{X: 760, Y: 410, Width: 80, Height: 80}

	v := AnalyzeFace(face, meta, testThresholds)
	if !almostEqual(v.EdgeLeft, 0.5) {
		t.Errorf("edge left = %v, want 0.5", v.EdgeLeft)
	}
	if !almostEqual(v.EdgeTop, 0.5) {
		t.Errorf("edge top = %v, want 0.5", v.EdgeTop)
	}
}
