// Package model defines the core data types for the headshot pipeline.
// Everything here is created fresh per request and discarded when the
// pipeline finishes; nothing is shared across requests.
package model

import "errors"

// ErrInvalidMetadata is returned when a decoded image reports non-positive
// dimensions. It aborts the request before any pixel work happens.
var ErrInvalidMetadata = errors.New("invalid image metadata")

// ImageMetadata holds the dimensions of the decoded source image.
type ImageMetadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks that both dimensions are positive.
func (m ImageMetadata) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return ErrInvalidMetadata
	}
	return nil
}

// MinDimension returns the shorter image side.
func (m ImageMetadata) MinDimension() int {
	if m.Width < m.Height {
		return m.Width
	}
	return m.Height
}

// AspectRatio returns width/height.
func (m ImageMetadata) AspectRatio() float64 {
	return float64(m.Width) / float64(m.Height)
}

// FaceBox is a detected face bounding box in source-image pixel space,
// origin top-left. Confidence is the detector's quality score.
type FaceBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float32 `json:"confidence"`
}

// Area returns width*height in pixels.
func (f FaceBox) Area() int {
	return f.Width * f.Height
}

// Center returns the box center point.
func (f FaceBox) Center() (x, y float64) {
	return float64(f.X) + float64(f.Width)/2, float64(f.Y) + float64(f.Height)/2
}

// LargestFace selects the face the pipeline keeps: the largest by area.
// Exact-area ties go to the earlier box, so detection order is preserved.
// Returns nil for an empty slice.
func LargestFace(faces []FaceBox) *FaceBox {
	if len(faces) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(faces); i++ {
		if faces[i].Area() > faces[best].Area() {
			best = i
		}
	}
	face := faces[best]
	return &face
}

// CropRegion is the rectangle the crop stage extracts, in source-image
// pixel space. A valid region satisfies:
//
//	0 <= Left, 0 <= Top, Left+Width <= imageWidth, Top+Height <= imageHeight,
//	Width > 0, Height > 0
type CropRegion struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Within reports whether the region satisfies the validity invariants for
// the given image dimensions.
func (r CropRegion) Within(m ImageMetadata) bool {
	return r.Left >= 0 && r.Top >= 0 &&
		r.Width > 0 && r.Height > 0 &&
		r.Left+r.Width <= m.Width &&
		r.Top+r.Height <= m.Height
}

// TightCropVerdict is the result of face geometry analysis. All four edge
// distances are reported for diagnostics even though only the minimum
// drives the decision.
type TightCropVerdict struct {
	FaceRatio       float64 `json:"face_ratio"`
	EdgeLeft        float64 `json:"edge_left"`
	EdgeRight       float64 `json:"edge_right"`
	EdgeTop         float64 `json:"edge_top"`
	EdgeBottom      float64 `json:"edge_bottom"`
	MinEdgeDistance float64 `json:"min_edge_distance"`
	IsTight         bool    `json:"is_tight"`
}
