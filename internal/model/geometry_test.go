package model

import "testing"

func TestLargestFace(t *testing.T) {
	tests := []struct {
		name  string
		faces []FaceBox
		want  int // index of expected winner, -1 for nil
	}{
		{"empty", nil, -1},
		{"single", []FaceBox{{Width: 10, Height: 10}}, 0},
		{"largest wins", []FaceBox{
			{X: 0, Width: 10, Height: 10},
			{X: 1, Width: 30, Height: 30},
			{X: 2, Width: 20, Height: 20},
		}, 1},
		// Exact-area tie: the first-seen box must win.
		{"tie goes to first", []FaceBox{
			{X: 5, Width: 20, Height: 20},
			{X: 9, Width: 20, Height: 20},
		}, 0},
		{"tie by different shape", []FaceBox{
			{X: 1, Width: 10, Height: 40},
			{X: 2, Width: 20, Height: 20},
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LargestFace(tt.faces)
			if tt.want == -1 {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a face, got nil")
			}
			if *got != tt.faces[tt.want] {
				t.Errorf("got %+v, want %+v", *got, tt.faces[tt.want])
			}
		})
	}
}

func TestImageMetadataValidate(t *testing.T) {
	if err := (ImageMetadata{Width: 100, Height: 50}).Validate(); err != nil {
		t.Errorf("valid metadata rejected: %v", err)
	}
	for _, m := range []ImageMetadata{{0, 50}, {50, 0}, {-1, 50}, {50, -1}, {0, 0}} {
		if err := m.Validate(); err == nil {
			t.Errorf("expected error for %+v", m)
		}
	}
}

func TestCropRegionWithin(t *testing.T) {
	meta := ImageMetadata{Width: 100, Height: 80}

	valid := []CropRegion{
		{0, 0, 100, 80},
		{10, 10, 50, 50},
		{99, 79, 1, 1},
	}
	for _, r := range valid {
		if !r.Within(meta) {
			t.Errorf("region %+v should be within %+v", r, meta)
		}
	}

	invalid := []CropRegion{
		{-1, 0, 10, 10},
		{0, -1, 10, 10},
		{0, 0, 101, 80},
		{0, 0, 100, 81},
		{95, 0, 10, 10},
		{0, 0, 0, 10},
		{0, 0, 10, 0},
	}
	for _, r := range invalid {
		if r.Within(meta) {
			t.Errorf("region %+v should violate bounds of %+v", r, meta)
		}
	}
}

func TestFaceBoxCenter(t *testing.T) {
	cx, cy := (FaceBox{X: 400, Y: 400, Width: 60, Height: 60}).Center()
	if cx != 430 || cy != 430 {
		t.Errorf("center = (%v,%v), want (430,430)", cx, cy)
	}
}
