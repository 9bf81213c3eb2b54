package dsp

import (
	"math"
	"testing"
)

func sineResponseRMS(b *Biquad, freqHz float64, sampleRate float64, n int) float64 {
	// Skip the first half so the filter settles.
	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		x := float32(math.Sin(2.0 * math.Pi * freqHz * float64(i) / sampleRate))
		y := float64(b.Process(x))
		if i >= n/2 {
			sum += y * y
			count++
		}
	}
	return math.Sqrt(sum / float64(count))
}

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	const sampleRate = 48000

	lowIn := NewBiquad(Lowpass, 1000, 0.707, sampleRate)
	passRMS := sineResponseRMS(lowIn, 100, sampleRate, 48000)

	highIn := NewBiquad(Lowpass, 1000, 0.707, sampleRate)
	stopRMS := sineResponseRMS(highIn, 10000, sampleRate, 48000)

	if passRMS < 0.5 {
		t.Fatalf("passband should be near unity, got RMS %f", passRMS)
	}
	if stopRMS > passRMS*0.1 {
		t.Fatalf("stopband insufficiently attenuated: pass=%f stop=%f", passRMS, stopRMS)
	}
}

func TestHighpassAttenuatesBelowCutoff(t *testing.T) {
	const sampleRate = 48000

	hp := NewBiquad(Highpass, 2000, 0.707, sampleRate)
	stopRMS := sineResponseRMS(hp, 100, sampleRate, 48000)

	hp2 := NewBiquad(Highpass, 2000, 0.707, sampleRate)
	passRMS := sineResponseRMS(hp2, 10000, sampleRate, 48000)

	if passRMS < 0.5 {
		t.Fatalf("passband should be near unity, got RMS %f", passRMS)
	}
	if stopRMS > passRMS*0.1 {
		t.Fatalf("stopband insufficiently attenuated: pass=%f stop=%f", passRMS, stopRMS)
	}
}

func TestRetunePreservesState(t *testing.T) {
	const sampleRate = 48000
	b := NewBiquad(Lowpass, 800, 2.0, sampleRate)

	// Drive the filter so it carries internal state.
	for i := 0; i < 256; i++ {
		b.Process(float32(math.Sin(2.0 * math.Pi * 440.0 * float64(i) / sampleRate)))
	}
	x1, x2, y1, y2 := b.x1, b.x2, b.y1, b.y2

	b.Retune(4000, 0.5)
	if b.x1 != x1 || b.x2 != x2 || b.y1 != y1 || b.y2 != y2 {
		t.Fatalf("retune must not clear sample history")
	}
}

func TestRetuneClampsCutoffBelowNyquist(t *testing.T) {
	const sampleRate = 48000
	b := NewBiquad(Lowpass, 1e9, 0.707, sampleRate)
	for i := 0; i < 4096; i++ {
		y := b.Process(float32(math.Sin(2.0 * math.Pi * 440.0 * float64(i) / sampleRate)))
		if math.IsNaN(float64(y)) || math.IsInf(float64(y), 0) {
			t.Fatalf("non-finite output at sample %d with absurd cutoff", i)
		}
	}
}

func TestSmootherConvergesWithoutOvershoot(t *testing.T) {
	s := NewSmoother(0, 0.02, 48000)
	s.SetTarget(1)

	prev := float32(0)
	for i := 0; i < 48000; i++ {
		v := s.Next()
		if v < prev {
			t.Fatalf("smoother moved away from target at sample %d: %f -> %f", i, prev, v)
		}
		if v > 1.0001 {
			t.Fatalf("smoother overshot target: %f", v)
		}
		prev = v
	}
	// One time constant is 20ms; after a full second it must be there.
	if prev < 0.999 {
		t.Fatalf("smoother failed to converge: %f", prev)
	}
}

func TestSmootherSnapSkipsRamp(t *testing.T) {
	s := NewSmoother(0, 0.02, 48000)
	s.Snap(0.5)
	if s.Value() != 0.5 || s.Target() != 0.5 {
		t.Fatalf("snap should set value and target: value=%f target=%f", s.Value(), s.Target())
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-38) != 0 {
		t.Fatal("tiny value should flush to zero")
	}
	if FlushDenormals(0.5) != 0.5 {
		t.Fatal("normal value must pass through")
	}
}
