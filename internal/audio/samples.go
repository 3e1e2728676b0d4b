package audio

import (
	"math"
	"slices"
)

// fullScale is the largest positive 16-bit sample, used as unit peak.
const fullScale = math.MaxInt16

// PeakLevel returns max(|s|) / 32767. An empty or silent buffer has peak 0.
func PeakLevel(samples []int16) float64 {
	peak := 0
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}
	return float64(peak) / fullScale
}

// ApplyGain scales every sample by gain in place, saturating at the int16
// range and rounding to the nearest integer.
func ApplyGain(samples []int16, gain float64) {
	for i, s := range samples {
		v := float64(s) * gain
		v = min(max(v, math.MinInt16), math.MaxInt16)
		samples[i] = int16(math.Round(v))
	}
}

// Reverse reverses the sample order in place. Interleaved channels are not
// separated first, so a stereo buffer also swaps left and right slots.
func Reverse(samples []int16) {
	slices.Reverse(samples)
}

// NormalizeGain returns the gain that moves the buffer peak to target.
func NormalizeGain(samples []int16, target float64) (float64, error) {
	peak := PeakLevel(samples)
	if peak == 0 {
		return 0, processingError("audio is silent (no signal detected)")
	}
	return target / peak, nil
}
