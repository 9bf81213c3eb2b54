package synth

import "math"

// Waveform defines the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle

	numWaveforms
)

// String returns the waveform name as shown in the UI.
func (w Waveform) String() string {
	switch w {
	case WaveSquare:
		return "square"
	case WaveSaw:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	default:
		return "sine"
	}
}

// ParseWaveform is the inverse of String.
func ParseWaveform(name string) (Waveform, bool) {
	switch name {
	case "sine":
		return WaveSine, true
	case "square":
		return WaveSquare, true
	case "sawtooth", "saw":
		return WaveSaw, true
	case "triangle":
		return WaveTriangle, true
	}
	return WaveSine, false
}

// oscillator is a single phase accumulator. Phase runs over (-pi, pi].
type oscillator struct {
	wave      Waveform
	phase     float64
	phaseStep float64
}

func newOscillator(wave Waveform, freqHz float32, sampleRate int) oscillator {
	o := oscillator{wave: wave}
	o.setFrequency(freqHz, sampleRate)
	return o
}

func (o *oscillator) setFrequency(freqHz float32, sampleRate int) {
	o.phaseStep = 2 * math.Pi * float64(freqHz) / float64(sampleRate)
}

// next advances one sample and returns the waveform value in [-1, 1].
func (o *oscillator) next() float32 {
	v := waveSample(o.wave, o.phase)
	o.phase += o.phaseStep
	if o.phase > math.Pi {
		o.phase -= 2 * math.Pi
	}
	return v
}

func waveSample(w Waveform, phase float64) float32 {
	switch w {
	case WaveTriangle:
		return float32((2 / math.Pi) * math.Asin(math.Sin(phase)))
	case WaveSaw:
		return float32(phase / math.Pi)
	case WaveSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	default:
		return float32(math.Sin(phase))
	}
}
