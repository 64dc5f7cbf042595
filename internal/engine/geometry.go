// Package engine contains the decision core of the headshot pipeline: face
// geometry analysis, crop planning, luminance bucketing, and the
// orchestrator that sequences the transform stages.
package engine

import (
	"math"

	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
)

// AnalyzeFace computes the tight-crop verdict for a detected face. Callers
// must only invoke it when a face box exists.
//
// An image is tight when detection is enabled and either the face fills more
// of the frame than the ratio threshold, or the face center sits closer to
// an edge than the distance threshold. With detection disabled the verdict
// is always not-tight, whatever the metrics say.
func AnalyzeFace(face model.FaceBox, meta model.ImageMetadata, th preset.ThresholdConfig) model.TightCropVerdict {
	cx, cy := face.Center()

	v := model.TightCropVerdict{
		FaceRatio: float64(face.Area()) / (float64(meta.Width) * float64(meta.Height)),
		EdgeLeft:  cx / float64(meta.Width),
		EdgeTop:   cy / float64(meta.Height),
	}
	v.EdgeRight = 1 - v.EdgeLeft
	v.EdgeBottom = 1 - v.EdgeTop
	v.MinEdgeDistance = math.Min(
		math.Min(v.EdgeLeft, v.EdgeRight),
		math.Min(v.EdgeTop, v.EdgeBottom),
	)

	if th.Enabled {
		v.IsTight = v.FaceRatio > th.FaceToImageRatio || v.MinEdgeDistance < th.FaceEdgeDistance
	}
	return v
}
