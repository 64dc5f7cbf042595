package engine

import (
	"math"

	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
)

// PlanCrop chooses the crop rectangle for one image. The first matching
// branch wins:
//
//  1. face present and tight: a loose square (loose_crop_size of the short
//     side) centered on the face, with no vertical offset; the wider frame
//     stays centered on purpose.
//  2. face present, not tight: a face_detected_size square centered on the
//     face, then shifted down by crop height * face_vertical_offset so the
//     face sits in the upper portion of the frame.
//  3. no face: a fallback_size square centered horizontally, with the top
//     picked by the landscape/portrait heuristic.
//
// The nominal rectangle is then clamped into the image and, if it still
// overruns, shrunk to fit. PlanCrop never fails: for any valid metadata the
// returned region satisfies the CropRegion invariants.
//
// verdict may be nil only when face is nil. The skip_crop_size threshold is
// reserved and never selected here.
func PlanCrop(face *model.FaceBox, meta model.ImageMetadata, c preset.CroppingConfig, verdict *model.TightCropVerdict) model.CropRegion {
	minDim := float64(meta.MinDimension())

	var side, left, top int
	switch {
	case face != nil && verdict != nil && verdict.IsTight:
		side = scaled(minDim, c.TightCrop.LooseCropSize)
		cx, cy := face.Center()
		left = int(math.Round(cx)) - side/2
		top = int(math.Round(cy)) - side/2

	case face != nil:
		side = scaled(minDim, c.FaceDetectedSize)
		cx, cy := face.Center()
		left = int(math.Round(cx)) - side/2
		top = int(math.Round(cy)) - side/2
		top += int(math.Round(float64(side) * c.FaceVerticalOffset))

	default:
		side = scaled(minDim, c.FallbackSize)
		left = (meta.Width - side) / 2
		if meta.AspectRatio() > c.LandscapeThreshold {
			top = int(math.Round(float64(meta.Height) * c.FallbackLandscapeTop))
		} else {
			top = int(math.Round(float64(meta.Height) * c.FallbackPortraitTop))
		}
	}

	return clampRegion(left, top, side, meta)
}

// scaled converts a fraction of the short side to a pixel length of at
// least 1.
func scaled(minDim, factor float64) int {
	side := int(math.Round(minDim * factor))
	if side < 1 {
		side = 1
	}
	return side
}

// clampRegion pins the nominal square into the image: left/top are clamped
// into range first, then width/height shrink to whatever room remains.
func clampRegion(left, top, side int, meta model.ImageMetadata) model.CropRegion {
	left = clamp(left, 0, meta.Width-side)
	top = clamp(top, 0, meta.Height-side)

	width := side
	if left+width > meta.Width {
		width = meta.Width - left
	}
	height := side
	if top+height > meta.Height {
		height = meta.Height - top
	}

	return model.CropRegion{Left: left, Top: top, Width: width, Height: height}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
