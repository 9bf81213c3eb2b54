package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// noteToFreq converts MIDI note number to frequency in Hz.
func noteToFreq(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func centsToRatio(cents float32) float32 {
	return pow2Approx(cents / 1200.0)
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

func maxf(a float32, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a float32, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
