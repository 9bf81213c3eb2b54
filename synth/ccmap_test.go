package synth

import (
	"math"
	"testing"

	"github.com/f1lt3r/subsynth/dsp"
)

// Controller numbers below are the raw incoming MIDI values; the map shifts
// them up by one, so controller 0 drives knob 1 and controller 15 knob 16.

func TestControlChangeFilterFreqSweep(t *testing.T) {
	s := newTestSynth(NewDefaultParams())

	// Lowpass: 20 * 500^norm, so full scale lands on the 10 kHz ceiling.
	s.ControlChange(0, 127)
	if got := s.Params().FilterFreq; math.Abs(float64(got)-10000) > 1 {
		t.Fatalf("lowpass knob 1 full: got %.2f Hz, want 10000", got)
	}
	s.ControlChange(0, 0)
	if got := s.Params().FilterFreq; math.Abs(float64(got)-20) > 0.01 {
		t.Fatalf("knob 1 zero: got %.2f Hz, want 20", got)
	}

	// Other types sweep to 20 kHz.
	if _, err := s.SetParam(ParamFilterType, 0, float32(dsp.Highpass)); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	s.ControlChange(0, 127)
	if got := s.Params().FilterFreq; math.Abs(float64(got)-20000) > 2 {
		t.Fatalf("highpass knob 1 full: got %.2f Hz, want 20000", got)
	}
}

func TestControlChangeResonance(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.ControlChange(1, 127)
	if got := s.Params().FilterQ; got != 20 {
		t.Fatalf("knob 2 full: got Q %v, want 20", got)
	}
}

func TestControlChangeEnvelopeKnobs(t *testing.T) {
	s := newTestSynth(NewDefaultParams())

	s.ControlChange(4, 127)
	s.ControlChange(7, 127)
	s.ControlChange(9, 0)
	p := s.Params()
	if p.Attack != 2 {
		t.Fatalf("knob 5 full: attack %v, want 2", p.Attack)
	}
	if p.Release != 3 {
		t.Fatalf("knob 8 full: release %v, want 3", p.Release)
	}
	if p.FDecay != 0 {
		t.Fatalf("knob 10 zero: filter decay %v, want 0", p.FDecay)
	}
}

func TestControlChangeSemitoneKnobs(t *testing.T) {
	s := newTestSynth(NewDefaultParams())

	s.ControlChange(12, 127)
	s.ControlChange(13, 64)
	s.ControlChange(14, 0)
	p := s.Params()
	if p.Osc[0].Semi != 12 {
		t.Fatalf("knob 13 full: semi %d, want 12", p.Osc[0].Semi)
	}
	if p.Osc[1].Semi != 0 {
		t.Fatalf("knob 14 center: semi %d, want 0", p.Osc[1].Semi)
	}
	if p.Osc[2].Semi != -12 {
		t.Fatalf("knob 15 zero: semi %d, want -12", p.Osc[2].Semi)
	}
}

func TestControlChangePan(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.ControlChange(15, 127)
	if got := s.Params().Pan; got != 1 {
		t.Fatalf("knob 16 full: pan %v, want 1", got)
	}
	if got := s.Params().Osc[2].Semi; got != 0 {
		t.Fatalf("controller 15 leaked into osc3 semi: %d, want 0", got)
	}
	s.ControlChange(15, 0)
	if got := s.Params().Pan; got != -1 {
		t.Fatalf("knob 16 zero: pan %v, want -1", got)
	}
}

func TestControlChangeUnassignedIsIgnored(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	before := s.Params()
	s.ControlChange(16, 127)
	s.ControlChange(40, 127)
	if s.Params() != before {
		t.Fatalf("unassigned CC changed the patch")
	}
}
