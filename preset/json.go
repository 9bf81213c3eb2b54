package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/f1lt3r/subsynth/dsp"
	"github.com/f1lt3r/subsynth/synth"
)

// File is the JSON schema for synth patches. Every field is optional; a
// preset only overrides what it mentions, the rest keeps its default.
type File struct {
	Oscillators []OscSetting     `json:"oscillators"`
	Filter      *FilterSetting   `json:"filter"`
	AmpEnv      *EnvelopeSetting `json:"amp_env"`
	FilterEnv   *EnvelopeSetting `json:"filter_env"`
	Tremolo     *TremoloSetting  `json:"tremolo"`
	Pan         *float32         `json:"pan"`
	Volume      *float32         `json:"volume"`
	Chorus      *ChorusSetting   `json:"chorus"`
	Reverb      *ReverbSetting   `json:"reverb"`
	Arp         *ArpSetting      `json:"arp"`
}

// OscSetting is a partial oscillator override. The array index selects the
// branch; use null entries to skip branches.
type OscSetting struct {
	Wave   *string  `json:"wave"`
	Octave *int     `json:"octave"`
	Semi   *int     `json:"semi"`
	Fine   *float32 `json:"fine"`
	Gain   *float32 `json:"gain"`
	Pan    *float32 `json:"pan"`
}

// FilterSetting is a partial filter override.
type FilterSetting struct {
	Type      *string  `json:"type"`
	Freq      *float32 `json:"freq"`
	Q         *float32 `json:"q"`
	EnvAmount *float32 `json:"env_amount"`
}

// EnvelopeSetting is a partial ADSR override; times in seconds.
type EnvelopeSetting struct {
	Attack  *float32 `json:"attack"`
	Decay   *float32 `json:"decay"`
	Sustain *float32 `json:"sustain"`
	Release *float32 `json:"release"`
}

// TremoloSetting is a partial tremolo override.
type TremoloSetting struct {
	Rate  *float32 `json:"rate"`
	Depth *float32 `json:"depth"`
}

// ChorusSetting is a partial chorus override.
type ChorusSetting struct {
	Enabled *bool    `json:"enabled"`
	Mix     *float32 `json:"mix"`
	RateHz  *float32 `json:"rate_hz"`
}

// ReverbSetting is a partial reverb override.
type ReverbSetting struct {
	Enabled  *bool    `json:"enabled"`
	Wet      *float32 `json:"wet"`
	RoomSize *float32 `json:"room_size"`
}

// ArpSetting is a partial arpeggiator override.
type ArpSetting struct {
	Enabled *bool    `json:"enabled"`
	RateBPM *float32 `json:"rate_bpm"`
}

// LoadJSON loads a preset file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadJSONOrDefault loads a preset file, falling back to the default patch
// if the file is missing or broken. A bad preset must never keep the synth
// from starting.
func LoadJSONOrDefault(path string) (*synth.Params, error) {
	p, err := LoadJSON(path)
	if err != nil {
		return synth.NewDefaultParams(), err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if len(f.Oscillators) > synth.NumOscillators {
		return fmt.Errorf("too many oscillators: %d (max %d)", len(f.Oscillators), synth.NumOscillators)
	}
	for i, o := range f.Oscillators {
		if o.Wave != nil {
			w, ok := synth.ParseWaveform(*o.Wave)
			if !ok {
				return fmt.Errorf("oscillators[%d].wave: unknown waveform %q", i, *o.Wave)
			}
			dst.Osc[i].Wave = w
		}
		if o.Octave != nil {
			if *o.Octave < -3 || *o.Octave > 3 {
				return fmt.Errorf("oscillators[%d].octave must be in -3..3", i)
			}
			dst.Osc[i].Octave = *o.Octave
		}
		if o.Semi != nil {
			if *o.Semi < -12 || *o.Semi > 12 {
				return fmt.Errorf("oscillators[%d].semi must be in -12..12", i)
			}
			dst.Osc[i].Semi = *o.Semi
		}
		if o.Fine != nil {
			if *o.Fine < -100 || *o.Fine > 100 {
				return fmt.Errorf("oscillators[%d].fine must be in -100..100", i)
			}
			dst.Osc[i].Fine = *o.Fine
		}
		if o.Gain != nil {
			if *o.Gain < 0 || *o.Gain > 1 {
				return fmt.Errorf("oscillators[%d].gain must be in 0..1", i)
			}
			dst.Osc[i].Gain = *o.Gain
		}
		if o.Pan != nil {
			if *o.Pan < -1 || *o.Pan > 1 {
				return fmt.Errorf("oscillators[%d].pan must be in -1..1", i)
			}
			dst.Osc[i].Pan = *o.Pan
		}
	}

	if f.Filter != nil {
		if f.Filter.Type != nil {
			t, ok := dsp.ParseFilterType(*f.Filter.Type)
			if !ok {
				return fmt.Errorf("filter.type: unknown type %q", *f.Filter.Type)
			}
			dst.FilterType = t
		}
		if f.Filter.Freq != nil {
			if *f.Filter.Freq < 20 || *f.Filter.Freq > 20000 {
				return fmt.Errorf("filter.freq must be in 20..20000")
			}
			dst.FilterFreq = *f.Filter.Freq
		}
		if f.Filter.Q != nil {
			if *f.Filter.Q <= 0 || *f.Filter.Q > 20 {
				return fmt.Errorf("filter.q must be in (0,20]")
			}
			dst.FilterQ = *f.Filter.Q
		}
		if f.Filter.EnvAmount != nil {
			dst.FilterEnvAmt = *f.Filter.EnvAmount
		}
	}

	if err := applyEnvelope(f.AmpEnv, "amp_env",
		&dst.Attack, &dst.Decay, &dst.Sustain, &dst.Release); err != nil {
		return err
	}
	if err := applyEnvelope(f.FilterEnv, "filter_env",
		&dst.FAttack, &dst.FDecay, &dst.FSustain, &dst.FRelease); err != nil {
		return err
	}

	if f.Tremolo != nil {
		if f.Tremolo.Rate != nil {
			if *f.Tremolo.Rate <= 0 {
				return fmt.Errorf("tremolo.rate must be > 0")
			}
			dst.TremRate = *f.Tremolo.Rate
		}
		if f.Tremolo.Depth != nil {
			if *f.Tremolo.Depth < 0 || *f.Tremolo.Depth > 1 {
				return fmt.Errorf("tremolo.depth must be in 0..1")
			}
			dst.TremDepth = *f.Tremolo.Depth
		}
	}

	if f.Pan != nil {
		if *f.Pan < -1 || *f.Pan > 1 {
			return fmt.Errorf("pan must be in -1..1")
		}
		dst.Pan = *f.Pan
	}
	if f.Volume != nil {
		if *f.Volume < 0 || *f.Volume > 1 {
			return fmt.Errorf("volume must be in 0..1")
		}
		dst.Volume = *f.Volume
	}

	if f.Chorus != nil {
		if f.Chorus.Enabled != nil {
			dst.ChorusEnabled = *f.Chorus.Enabled
		}
		if f.Chorus.Mix != nil {
			if *f.Chorus.Mix < 0 || *f.Chorus.Mix > 1 {
				return fmt.Errorf("chorus.mix must be in 0..1")
			}
			dst.ChorusMix = *f.Chorus.Mix
		}
		if f.Chorus.RateHz != nil {
			if *f.Chorus.RateHz <= 0 {
				return fmt.Errorf("chorus.rate_hz must be > 0")
			}
			dst.ChorusRateHz = *f.Chorus.RateHz
		}
	}
	if f.Reverb != nil {
		if f.Reverb.Enabled != nil {
			dst.ReverbEnabled = *f.Reverb.Enabled
		}
		if f.Reverb.Wet != nil {
			if *f.Reverb.Wet < 0 {
				return fmt.Errorf("reverb.wet must be >= 0")
			}
			dst.ReverbWet = *f.Reverb.Wet
		}
		if f.Reverb.RoomSize != nil {
			if *f.Reverb.RoomSize < 0 || *f.Reverb.RoomSize > 0.98 {
				return fmt.Errorf("reverb.room_size must be in 0..0.98")
			}
			dst.ReverbRoomSize = *f.Reverb.RoomSize
		}
	}

	if f.Arp != nil {
		if f.Arp.Enabled != nil {
			dst.ArpEnabled = *f.Arp.Enabled
		}
		if f.Arp.RateBPM != nil {
			if *f.Arp.RateBPM < 30 || *f.Arp.RateBPM > 300 {
				return fmt.Errorf("arp.rate_bpm must be in 30..300")
			}
			dst.ArpRate = *f.Arp.RateBPM
		}
	}
	return nil
}

func applyEnvelope(e *EnvelopeSetting, name string, attack, decay, sustain, release *float32) error {
	if e == nil {
		return nil
	}
	if e.Attack != nil {
		if *e.Attack < 0 {
			return fmt.Errorf("%s.attack must be >= 0", name)
		}
		*attack = *e.Attack
	}
	if e.Decay != nil {
		if *e.Decay < 0 {
			return fmt.Errorf("%s.decay must be >= 0", name)
		}
		*decay = *e.Decay
	}
	if e.Sustain != nil {
		if *e.Sustain < 0 || *e.Sustain > 1 {
			return fmt.Errorf("%s.sustain must be in 0..1", name)
		}
		*sustain = *e.Sustain
	}
	if e.Release != nil {
		if *e.Release < 0 {
			return fmt.Errorf("%s.release must be >= 0", name)
		}
		*release = *e.Release
	}
	return nil
}

// SaveJSON writes the full patch as a preset file. Saved files mention every
// field, so loading one back reproduces the patch exactly.
func SaveJSON(path string, p *synth.Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}

	f := File{
		Oscillators: make([]OscSetting, synth.NumOscillators),
		Filter: &FilterSetting{
			Type:      strPtr(p.FilterType.String()),
			Freq:      f32Ptr(p.FilterFreq),
			Q:         f32Ptr(p.FilterQ),
			EnvAmount: f32Ptr(p.FilterEnvAmt),
		},
		AmpEnv: &EnvelopeSetting{
			Attack:  f32Ptr(p.Attack),
			Decay:   f32Ptr(p.Decay),
			Sustain: f32Ptr(p.Sustain),
			Release: f32Ptr(p.Release),
		},
		FilterEnv: &EnvelopeSetting{
			Attack:  f32Ptr(p.FAttack),
			Decay:   f32Ptr(p.FDecay),
			Sustain: f32Ptr(p.FSustain),
			Release: f32Ptr(p.FRelease),
		},
		Tremolo: &TremoloSetting{
			Rate:  f32Ptr(p.TremRate),
			Depth: f32Ptr(p.TremDepth),
		},
		Pan:    f32Ptr(p.Pan),
		Volume: f32Ptr(p.Volume),
		Chorus: &ChorusSetting{
			Enabled: boolPtr(p.ChorusEnabled),
			Mix:     f32Ptr(p.ChorusMix),
			RateHz:  f32Ptr(p.ChorusRateHz),
		},
		Reverb: &ReverbSetting{
			Enabled:  boolPtr(p.ReverbEnabled),
			Wet:      f32Ptr(p.ReverbWet),
			RoomSize: f32Ptr(p.ReverbRoomSize),
		},
		Arp: &ArpSetting{
			Enabled: boolPtr(p.ArpEnabled),
			RateBPM: f32Ptr(p.ArpRate),
		},
	}
	for i := range f.Oscillators {
		o := p.Osc[i]
		f.Oscillators[i] = OscSetting{
			Wave:   strPtr(o.Wave.String()),
			Octave: intPtr(o.Octave),
			Semi:   intPtr(o.Semi),
			Fine:   f32Ptr(o.Fine),
			Gain:   f32Ptr(o.Gain),
			Pan:    f32Ptr(o.Pan),
		}
	}

	b, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func f32Ptr(v float32) *float32 { return &v }
func intPtr(v int) *int         { return &v }
func strPtr(v string) *string   { return &v }
func boolPtr(v bool) *bool      { return &v }
