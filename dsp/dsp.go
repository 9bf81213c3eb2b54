package dsp

import "math"

// FilterType selects the biquad response shape.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Notch
)

// String returns the response name as used in preset files.
func (t FilterType) String() string {
	switch t {
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Notch:
		return "notch"
	default:
		return "lowpass"
	}
}

// ParseFilterType is the inverse of String.
func ParseFilterType(name string) (FilterType, bool) {
	switch name {
	case "lowpass":
		return Lowpass, true
	case "highpass":
		return Highpass, true
	case "bandpass":
		return Bandpass, true
	case "notch":
		return Notch, true
	}
	return Lowpass, false
}

// Biquad implements a second-order IIR filter (no heap allocations in Process).
// Retune recomputes coefficients in place so a sweeping cutoff never resets
// the filter state.
type Biquad struct {
	ftype      FilterType
	sampleRate float32

	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a filter of the given type tuned to cutoff/q.
func NewBiquad(ftype FilterType, cutoff, q, sampleRate float32) *Biquad {
	b := &Biquad{ftype: ftype, sampleRate: sampleRate}
	b.Retune(cutoff, q)
	return b
}

// Retune recomputes the coefficients for a new cutoff and Q while keeping
// the sample history, so modulation is click-free.
func (b *Biquad) Retune(cutoff, q float32) {
	fc := float64(cutoff)
	nyquist := float64(b.sampleRate) * 0.5
	if fc < 10 {
		fc = 10
	}
	if fc > nyquist*0.99 {
		fc = nyquist * 0.99
	}
	if q < 0.01 {
		q = 0.01
	}

	w0 := 2.0 * math.Pi * fc / float64(b.sampleRate)
	alpha := math.Sin(w0) / (2.0 * float64(q))
	cosw0 := math.Cos(w0)

	var b0, b1, b2 float64
	switch b.ftype {
	case Highpass:
		b0 = (1.0 + cosw0) / 2.0
		b1 = -(1.0 + cosw0)
		b2 = (1.0 + cosw0) / 2.0
	case Bandpass:
		b0 = alpha
		b1 = 0.0
		b2 = -alpha
	case Notch:
		b0 = 1.0
		b1 = -2.0 * cosw0
		b2 = 1.0
	default: // Lowpass
		b0 = (1.0 - cosw0) / 2.0
		b1 = 1.0 - cosw0
		b2 = (1.0 - cosw0) / 2.0
	}
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	// Normalize by a0
	b.b0 = float32(b0 / a0)
	b.b1 = float32(b1 / a0)
	b.b2 = float32(b2 / a0)
	b.a1 = float32(a1 / a0)
	b.a2 = float32(a2 / a0)
}

// SetType switches the response shape and retunes with the given settings.
func (b *Biquad) SetType(ftype FilterType, cutoff, q float32) {
	b.ftype = ftype
	b.Retune(cutoff, q)
}

// Type returns the current response shape.
func (b *Biquad) Type() FilterType {
	return b.ftype
}

// Process processes one sample through the biquad filter.
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	// Update state
	b.x2 = b.x1
	b.x1 = input
	b.y2 = FlushDenormals(b.y1)
	b.y1 = FlushDenormals(output)

	return output
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// Smoother is a one-pole parameter smoother. Live edits land on the target;
// Next eases the current value toward it with the configured time constant.
type Smoother struct {
	current float32
	target  float32
	coeff   float32
}

// NewSmoother creates a smoother with the given time constant in seconds.
// Around 0.02 keeps parameter edits free of zipper noise without feeling
// laggy.
func NewSmoother(initial float32, timeConstant float32, sampleRate float32) *Smoother {
	if timeConstant <= 0 {
		timeConstant = 0.001
	}
	return &Smoother{
		current: initial,
		target:  initial,
		coeff:   float32(1.0 - math.Exp(-1.0/(float64(timeConstant)*float64(sampleRate)))),
	}
}

// SetTarget points the smoother at a new value.
func (s *Smoother) SetTarget(v float32) {
	s.target = v
}

// Snap jumps straight to v, bypassing the ramp. Used at voice start so the
// first block does not glide in from a stale value.
func (s *Smoother) Snap(v float32) {
	s.current = v
	s.target = v
}

// Target returns the value the smoother is converging to.
func (s *Smoother) Target() float32 {
	return s.target
}

// Value returns the current smoothed value without advancing.
func (s *Smoother) Value() float32 {
	return s.current
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float32 {
	s.current += (s.target - s.current) * s.coeff
	return s.current
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues.
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
