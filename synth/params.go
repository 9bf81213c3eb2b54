package synth

import (
	"math/rand"

	"github.com/f1lt3r/subsynth/dsp"
)

// NumOscillators is the fixed number of oscillator branches per voice.
const NumOscillators = 3

// OscParams holds the settings of one oscillator branch.
type OscParams struct {
	Wave   Waveform
	Octave int     // -3..3, 1200 cents each
	Semi   int     // -12..12, 100 cents each
	Fine   float32 // cents, -100..100
	Gain   float32 // 0..1
	Pan    float32 // -1..1
}

// Params holds all patch parameters. A single instance is owned by the Synth
// engine and shared by reference with every voice it triggers.
type Params struct {
	Osc [NumOscillators]OscParams

	FilterType   dsp.FilterType
	FilterFreq   float32 // Hz
	FilterQ      float32
	FilterEnvAmt float32 // Hz added at full envelope, may be negative

	// Amp envelope, seconds except Sustain (level 0..1).
	Attack  float32
	Decay   float32
	Sustain float32
	Release float32

	// Filter envelope, same shape with independent timing.
	FAttack  float32
	FDecay   float32
	FSustain float32
	FRelease float32

	TremRate  float32 // Hz
	TremDepth float32 // 0..1

	Pan    float32 // master pan, -1..1
	Volume float32 // master volume, 0..1

	// Master effects (off by default).
	ChorusEnabled  bool
	ChorusMix      float32
	ChorusRateHz   float32
	ReverbEnabled  bool
	ReverbWet      float32
	ReverbRoomSize float32

	ArpEnabled bool
	ArpRate    float32 // BPM, stepped in eighth notes
}

// NewDefaultParams creates the default patch.
func NewDefaultParams() *Params {
	return &Params{
		Osc: [NumOscillators]OscParams{
			{Wave: WaveSaw, Octave: 0, Semi: 0, Fine: 0, Gain: 0.5, Pan: 0},
			{Wave: WaveSquare, Octave: -1, Semi: 0, Fine: -4, Gain: 0.3, Pan: -0.2},
			{Wave: WaveSine, Octave: 1, Semi: 0, Fine: 4, Gain: 0.2, Pan: 0.2},
		},
		FilterType:     dsp.Lowpass,
		FilterFreq:     2000,
		FilterQ:        1,
		FilterEnvAmt:   0,
		Attack:         0.01,
		Decay:          0.3,
		Sustain:        0.7,
		Release:        0.4,
		FAttack:        0.05,
		FDecay:         0.25,
		FSustain:       0.3,
		FRelease:       0.4,
		TremRate:       4,
		TremDepth:      0,
		Pan:            0,
		Volume:         0.7,
		ChorusMix:      0.18,
		ChorusRateHz:   0.35,
		ReverbWet:      0.2,
		ReverbRoomSize: 0.7,
		ArpEnabled:     false,
		ArpRate:        120,
	}
}

// ParamID identifies an editable parameter. Oscillator parameters carry an
// explicit branch index alongside the ID.
type ParamID int

const (
	ParamOscWave ParamID = iota
	ParamOscOctave
	ParamOscSemi
	ParamOscFine
	ParamOscGain
	ParamOscPan

	ParamFilterType
	ParamFilterFreq
	ParamFilterQ
	ParamFilterEnvAmt

	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamFAttack
	ParamFDecay
	ParamFSustain
	ParamFRelease

	ParamTremRate
	ParamTremDepth

	ParamPan
	ParamVolume

	ParamChorusEnabled
	ParamChorusMix
	ParamChorusRate
	ParamReverbEnabled
	ParamReverbWet
	ParamReverbRoomSize

	ParamArpEnabled
	ParamArpRate
)

var paramNames = map[ParamID]string{
	ParamOscWave:        "osc_wave",
	ParamOscOctave:      "osc_octave",
	ParamOscSemi:        "osc_semi",
	ParamOscFine:        "osc_fine",
	ParamOscGain:        "osc_gain",
	ParamOscPan:         "osc_pan",
	ParamFilterType:     "filter_type",
	ParamFilterFreq:     "filter_freq",
	ParamFilterQ:        "filter_q",
	ParamFilterEnvAmt:   "filter_env_amt",
	ParamAttack:         "attack",
	ParamDecay:          "decay",
	ParamSustain:        "sustain",
	ParamRelease:        "release",
	ParamFAttack:        "f_attack",
	ParamFDecay:         "f_decay",
	ParamFSustain:       "f_sustain",
	ParamFRelease:       "f_release",
	ParamTremRate:       "trem_rate",
	ParamTremDepth:      "trem_depth",
	ParamPan:            "pan",
	ParamVolume:         "volume",
	ParamChorusEnabled:  "chorus_enabled",
	ParamChorusMix:      "chorus_mix",
	ParamChorusRate:     "chorus_rate",
	ParamReverbEnabled:  "reverb_enabled",
	ParamReverbWet:      "reverb_wet",
	ParamReverbRoomSize: "reverb_room_size",
	ParamArpEnabled:     "arp_enabled",
	ParamArpRate:        "arp_rate",
}

// Name returns a stable lowercase identifier for logging and display.
func (id ParamID) Name() string {
	if n, ok := paramNames[id]; ok {
		return n
	}
	return "unknown"
}

// ParamByName resolves the identifiers returned by Name, for command
// interfaces.
func ParamByName(name string) (ParamID, bool) {
	for id, n := range paramNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// IsOscParam reports whether the ID addresses a per-oscillator field and
// therefore needs a valid branch index.
func (id ParamID) IsOscParam() bool {
	return id >= ParamOscWave && id <= ParamOscPan
}

// Apply writes a single edit into the params struct, clamping to the
// parameter's legal range, and returns the value actually stored.
func (p *Params) Apply(id ParamID, osc int, value float32) float32 {
	if id.IsOscParam() && (osc < 0 || osc >= NumOscillators) {
		return 0
	}
	switch id {
	case ParamOscWave:
		w := Waveform(int(value)) % numWaveforms
		if w < 0 {
			w += numWaveforms
		}
		p.Osc[osc].Wave = w
		return float32(w)
	case ParamOscOctave:
		p.Osc[osc].Octave = int(clampf(value, -3, 3))
		return float32(p.Osc[osc].Octave)
	case ParamOscSemi:
		p.Osc[osc].Semi = int(clampf(value, -12, 12))
		return float32(p.Osc[osc].Semi)
	case ParamOscFine:
		p.Osc[osc].Fine = clampf(value, -100, 100)
		return p.Osc[osc].Fine
	case ParamOscGain:
		p.Osc[osc].Gain = clampf(value, 0, 1)
		return p.Osc[osc].Gain
	case ParamOscPan:
		p.Osc[osc].Pan = clampf(value, -1, 1)
		return p.Osc[osc].Pan
	case ParamFilterType:
		switch dsp.FilterType(int(value)) {
		case dsp.Highpass:
			p.FilterType = dsp.Highpass
		case dsp.Bandpass:
			p.FilterType = dsp.Bandpass
		case dsp.Notch:
			p.FilterType = dsp.Notch
		default:
			p.FilterType = dsp.Lowpass
		}
		return float32(p.FilterType)
	case ParamFilterFreq:
		p.FilterFreq = clampf(value, 20, 20000)
		return p.FilterFreq
	case ParamFilterQ:
		p.FilterQ = clampf(value, 0.01, 20)
		return p.FilterQ
	case ParamFilterEnvAmt:
		p.FilterEnvAmt = clampf(value, -10000, 10000)
		return p.FilterEnvAmt
	case ParamAttack:
		p.Attack = clampf(value, 0, 4)
		return p.Attack
	case ParamDecay:
		p.Decay = clampf(value, 0, 4)
		return p.Decay
	case ParamSustain:
		p.Sustain = clampf(value, 0, 1)
		return p.Sustain
	case ParamRelease:
		p.Release = clampf(value, 0, 6)
		return p.Release
	case ParamFAttack:
		p.FAttack = clampf(value, 0, 4)
		return p.FAttack
	case ParamFDecay:
		p.FDecay = clampf(value, 0, 4)
		return p.FDecay
	case ParamFSustain:
		p.FSustain = clampf(value, 0, 1)
		return p.FSustain
	case ParamFRelease:
		p.FRelease = clampf(value, 0, 6)
		return p.FRelease
	case ParamTremRate:
		p.TremRate = clampf(value, 0.1, 20)
		return p.TremRate
	case ParamTremDepth:
		p.TremDepth = clampf(value, 0, 1)
		return p.TremDepth
	case ParamPan:
		p.Pan = clampf(value, -1, 1)
		return p.Pan
	case ParamVolume:
		p.Volume = clampf(value, 0, 1)
		return p.Volume
	case ParamChorusEnabled:
		p.ChorusEnabled = value != 0
		return boolToFloat(p.ChorusEnabled)
	case ParamChorusMix:
		p.ChorusMix = clampf(value, 0, 1)
		return p.ChorusMix
	case ParamChorusRate:
		p.ChorusRateHz = clampf(value, 0.05, 5)
		return p.ChorusRateHz
	case ParamReverbEnabled:
		p.ReverbEnabled = value != 0
		return boolToFloat(p.ReverbEnabled)
	case ParamReverbWet:
		p.ReverbWet = clampf(value, 0, 1.5)
		return p.ReverbWet
	case ParamReverbRoomSize:
		p.ReverbRoomSize = clampf(value, 0, 0.98)
		return p.ReverbRoomSize
	case ParamArpEnabled:
		p.ArpEnabled = value != 0
		return boolToFloat(p.ArpEnabled)
	case ParamArpRate:
		p.ArpRate = clampf(value, 30, 300)
		return p.ArpRate
	}
	return 0
}

// Randomize rolls a new patch. Master volume and the arpeggiator switch are
// left alone so a random patch never blasts the output or changes play mode.
func (p *Params) Randomize(rng *rand.Rand) {
	for i := range p.Osc {
		p.Osc[i].Wave = Waveform(rng.Intn(int(numWaveforms)))
		p.Osc[i].Octave = rng.Intn(5) - 2
		p.Osc[i].Semi = rng.Intn(25) - 12
		p.Osc[i].Fine = float32(rng.Float64()*20 - 10)
		p.Osc[i].Gain = float32(rng.Float64() * 0.6)
		p.Osc[i].Pan = float32(rng.Float64()*2 - 1)
	}
	p.FilterType = dsp.FilterType(rng.Intn(4))
	p.FilterFreq = float32(20 * pow2Approx(float32(rng.Float64()*9)))
	p.FilterQ = float32(0.5 + rng.Float64()*10)
	p.FilterEnvAmt = float32(rng.Float64()*8000 - 2000)
	p.Attack = float32(rng.Float64() * 0.5)
	p.Decay = float32(rng.Float64())
	p.Sustain = float32(rng.Float64())
	p.Release = float32(rng.Float64() * 2)
	p.FAttack = float32(rng.Float64() * 0.5)
	p.FDecay = float32(rng.Float64())
	p.FSustain = float32(rng.Float64())
	p.FRelease = float32(rng.Float64() * 2)
	p.TremRate = float32(0.5 + rng.Float64()*10)
	p.TremDepth = float32(rng.Float64() * 0.5)
	p.Pan = float32(rng.Float64()*2 - 1)
	p.ArpRate = float32(60 + rng.Float64()*120)
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
