package main

import (
	"fmt"
	"math"

	"github.com/f1lt3r/subsynth/dsp"
	"github.com/f1lt3r/subsynth/internal/fitcommon"
	"github.com/f1lt3r/subsynth/synth"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

// initCandidate builds the knob set from the base patch. Pan knobs are left
// out on purpose: the distance metrics run on a mono mixdown and cannot see
// stereo placement.
func initCandidate(base *synth.Params) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 32)
	vals := make([]float64, 0, 32)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	for i := 0; i < synth.NumOscillators; i++ {
		osc := base.Osc[i]
		addKnob(knobDef{Name: fmt.Sprintf("osc.%d.wave", i), Min: 0, Max: 3, IsInt: true}, float64(osc.Wave))
		addKnob(knobDef{Name: fmt.Sprintf("osc.%d.octave", i), Min: -2, Max: 2, IsInt: true}, float64(osc.Octave))
		addKnob(knobDef{Name: fmt.Sprintf("osc.%d.semi", i), Min: -12, Max: 12, IsInt: true}, float64(osc.Semi))
		addKnob(knobDef{Name: fmt.Sprintf("osc.%d.fine", i), Min: -15, Max: 15}, float64(osc.Fine))
		addKnob(knobDef{Name: fmt.Sprintf("osc.%d.gain", i), Min: 0, Max: 1}, float64(osc.Gain))
	}

	addKnob(knobDef{Name: "filter.type", Min: 0, Max: 3, IsInt: true}, float64(base.FilterType))
	addKnob(knobDef{Name: "filter.freq", Min: 100, Max: 12000}, float64(base.FilterFreq))
	addKnob(knobDef{Name: "filter.q", Min: 0.3, Max: 12}, float64(base.FilterQ))
	addKnob(knobDef{Name: "filter.env_amt", Min: -4000, Max: 8000}, float64(base.FilterEnvAmt))

	addKnob(knobDef{Name: "amp.attack", Min: 0, Max: 0.5}, float64(base.Attack))
	addKnob(knobDef{Name: "amp.decay", Min: 0.02, Max: 2}, float64(base.Decay))
	addKnob(knobDef{Name: "amp.sustain", Min: 0, Max: 1}, float64(base.Sustain))
	addKnob(knobDef{Name: "amp.release", Min: 0.05, Max: 3}, float64(base.Release))

	addKnob(knobDef{Name: "fenv.attack", Min: 0, Max: 0.5}, float64(base.FAttack))
	addKnob(knobDef{Name: "fenv.decay", Min: 0.02, Max: 2}, float64(base.FDecay))
	addKnob(knobDef{Name: "fenv.sustain", Min: 0, Max: 1}, float64(base.FSustain))
	addKnob(knobDef{Name: "fenv.release", Min: 0.05, Max: 3}, float64(base.FRelease))

	addKnob(knobDef{Name: "trem.rate", Min: 0.5, Max: 12}, float64(base.TremRate))
	addKnob(knobDef{Name: "trem.depth", Min: 0, Max: 0.8}, float64(base.TremDepth))

	addKnob(knobDef{Name: "volume", Min: 0.1, Max: 1}, float64(base.Volume))

	for i := range vals {
		vals[i] = fitcommon.Clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate maps knob values onto a copy of the base patch.
func applyCandidate(base *synth.Params, defs []knobDef, c candidate) *synth.Params {
	params := *base
	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "filter.type":
			params.FilterType = dsp.FilterType(int(math.Round(v)))
		case "filter.freq":
			params.FilterFreq = float32(v)
		case "filter.q":
			params.FilterQ = float32(v)
		case "filter.env_amt":
			params.FilterEnvAmt = float32(v)
		case "amp.attack":
			params.Attack = float32(v)
		case "amp.decay":
			params.Decay = float32(v)
		case "amp.sustain":
			params.Sustain = float32(v)
		case "amp.release":
			params.Release = float32(v)
		case "fenv.attack":
			params.FAttack = float32(v)
		case "fenv.decay":
			params.FDecay = float32(v)
		case "fenv.sustain":
			params.FSustain = float32(v)
		case "fenv.release":
			params.FRelease = float32(v)
		case "trem.rate":
			params.TremRate = float32(v)
		case "trem.depth":
			params.TremDepth = float32(v)
		case "volume":
			params.Volume = float32(v)
		default:
			osc, field, ok := parseOscKnob(def.Name)
			if !ok {
				continue
			}
			switch field {
			case "wave":
				params.Osc[osc].Wave = synth.Waveform(int(math.Round(v)))
			case "octave":
				params.Osc[osc].Octave = int(math.Round(v))
			case "semi":
				params.Osc[osc].Semi = int(math.Round(v))
			case "fine":
				params.Osc[osc].Fine = float32(v)
			case "gain":
				params.Osc[osc].Gain = float32(v)
			}
		}
	}
	return &params
}

func parseOscKnob(name string) (int, string, bool) {
	var osc int
	var field string
	if _, err := fmt.Sscanf(name, "osc.%d.%s", &osc, &field); err != nil {
		return 0, "", false
	}
	if osc < 0 || osc >= synth.NumOscillators {
		return 0, "", false
	}
	return osc, field, true
}

// fromNormalized maps a mayfly position in [0,1]^n onto knob ranges.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}
