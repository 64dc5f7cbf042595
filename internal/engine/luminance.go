package engine

import "github.com/rmarek/headshot-service/internal/preset"

// BrightnessMultiplier maps an average luminance (0..255) to the configured
// brightness tier.
//
// The branch order is part of the contract: boundaries are half-open, a tie
// at dark_threshold or medium_threshold goes to the branch listed first, and
// configs whose thresholds overlap still resolve deterministically by first
// match. Do not reorder.
func BrightnessMultiplier(avgLuminance float64, b preset.BrightnessConfig) float64 {
	switch {
	case avgLuminance < b.DarkThreshold:
		return b.DarkImages
	case avgLuminance < b.MediumThreshold:
		return b.MediumDarkImages
	case avgLuminance > b.BrightThreshold:
		return b.BrightImages
	default:
		return b.Base
	}
}
