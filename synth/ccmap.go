package synth

import (
	"math"

	"github.com/f1lt3r/subsynth/dsp"
)

// Control change assignments. The hardware the original patch was built for
// numbers its knobs from 1, so the map is 1-based.
const (
	ccFilterFreq = 1
	ccFilterQ    = 2
	ccTremRate   = 3
	ccTremDepth  = 4
	ccAttack     = 5
	ccDecay      = 6
	ccSustain    = 7
	ccRelease    = 8
	ccFAttack    = 9
	ccFDecay     = 10
	ccFSustain   = 11
	ccFRelease   = 12
	ccOsc1Semi   = 13
	ccOsc2Semi   = 14
	ccOsc3Semi   = 15
	ccPan        = 16
)

// ControlChange maps an incoming MIDI CC to a parameter edit. The incoming
// controller number is remapped to the 1-based knob row (controller 0 drives
// knob 1), values are normalized to 0..1 and scaled per knob; controllers past
// the last knob are ignored.
func (s *Synth) ControlChange(controller, value uint8) {
	knob := int(controller) + 1
	norm := float32(value) / 127.0
	switch knob {
	case ccFilterFreq:
		// Exponential sweep. The lowpass tops out at its stability
		// ceiling of 10 kHz, the other types run to 20 kHz.
		base := 1000.0
		if s.filterTypeIsLowpass() {
			base = 500.0
		}
		s.SetParam(ParamFilterFreq, 0, float32(20.0*math.Pow(base, float64(norm))))
	case ccFilterQ:
		s.SetParam(ParamFilterQ, 0, norm*20)
	case ccTremRate:
		s.SetParam(ParamTremRate, 0, 0.1+norm*19.9)
	case ccTremDepth:
		s.SetParam(ParamTremDepth, 0, norm)
	case ccAttack:
		s.SetParam(ParamAttack, 0, norm*2)
	case ccDecay:
		s.SetParam(ParamDecay, 0, norm*2)
	case ccSustain:
		s.SetParam(ParamSustain, 0, norm)
	case ccRelease:
		s.SetParam(ParamRelease, 0, norm*3)
	case ccFAttack:
		s.SetParam(ParamFAttack, 0, norm*2)
	case ccFDecay:
		s.SetParam(ParamFDecay, 0, norm*2)
	case ccFSustain:
		s.SetParam(ParamFSustain, 0, norm)
	case ccFRelease:
		s.SetParam(ParamFRelease, 0, norm*3)
	case ccOsc1Semi, ccOsc2Semi, ccOsc3Semi:
		semi := float32(math.Round(float64(norm)*24 - 12))
		s.SetParam(ParamOscSemi, knob-ccOsc1Semi, semi)
	case ccPan:
		s.SetParam(ParamPan, 0, norm*2-1)
	}
}

func (s *Synth) filterTypeIsLowpass() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.FilterType == dsp.Lowpass
}
