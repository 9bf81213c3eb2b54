package synth

import "math"

// measureFundamentalFreq estimates pitch from the zero-crossing rate,
// skipping the initial transient.
func measureFundamentalFreq(samples []float32, sampleRate float32) float32 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 {
		return 0
	}
	duration := float32(len(samples)-startIdx) / sampleRate
	return float32(crossings) / (2.0 * duration)
}

func windowRMS(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func stereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}

func dftBinMagnitude(samples []float32, bin int) float64 {
	n := len(samples)
	var re float64
	var im float64
	for i := 0; i < n; i++ {
		phase := -2.0 * math.Pi * float64(bin*i) / float64(n)
		x := float64(samples[i])
		re += x * math.Cos(phase)
		im += x * math.Sin(phase)
	}
	return math.Hypot(re, im)
}

func spectralCentroid(samples []float32, sampleRate int, fftSize int) float64 {
	if len(samples) < fftSize {
		return 0
	}
	segment := samples[:fftSize]

	var weightedSum float64
	var magSum float64
	for k := 1; k < fftSize/2; k++ {
		mag := dftBinMagnitude(segment, k)
		freq := float64(k) * float64(sampleRate) / float64(fftSize)
		weightedSum += freq * mag
		magSum += mag
	}
	if magSum == 0 {
		return 0
	}
	return weightedSum / magSum
}

// leftChannel extracts the left channel of a stereo interleaved buffer.
func leftChannel(interleaved []float32) []float32 {
	mono := make([]float32, len(interleaved)/2)
	for i := range mono {
		mono[i] = interleaved[i*2]
	}
	return mono
}

// renderLeft runs the engine for numFrames in fixed-size blocks and returns
// the left channel.
func renderLeft(s *Synth, numFrames, blockSize int) []float32 {
	out := make([]float32, 0, numFrames)
	for rendered := 0; rendered < numFrames; rendered += blockSize {
		n := blockSize
		if numFrames-rendered < n {
			n = numFrames - rendered
		}
		out = append(out, leftChannel(s.Process(n))...)
	}
	return out
}

// sineTestParams is a patch reduced to a single clean sine through a wide
// open filter, for pitch and amplitude measurements.
func sineTestParams() *Params {
	p := NewDefaultParams()
	p.Osc[0] = OscParams{Wave: WaveSine, Gain: 1}
	p.Osc[1].Gain = 0
	p.Osc[2].Gain = 0
	p.FilterFreq = 8000
	p.FilterQ = 0.707
	p.FilterEnvAmt = 0
	p.Attack = 0.001
	p.Decay = 0.01
	p.Sustain = 1
	p.Release = 0.05
	p.TremDepth = 0
	p.Volume = 1
	return p
}

func newTestSynth(params *Params) *Synth {
	s, err := NewSynthWithParams(48000, params)
	if err != nil {
		panic(err)
	}
	return s
}
