package synth

import "github.com/f1lt3r/subsynth/dsp"

const (
	// Filter coefficients are recomputed every controlInterval samples; at
	// 48 kHz that is a 0.7 ms control rate, well under audibility.
	controlInterval = 32

	// Lowpass cutoff ceiling. Driving a resonant lowpass much past this is
	// where instability and aliasing artifacts start.
	lowpassCutoffCeiling = 10000.0

	smoothingSeconds = 0.02
)

// oscBranch is one oscillator lane of a voice: waveform, detune in cents and
// smoothed gain/pan.
type oscBranch struct {
	osc      oscillator
	baseFreq float32 // note frequency before detune

	octave int
	semi   int
	fine   float32

	detune *dsp.Smoother // total cents
	gain   *dsp.Smoother
	pan    *dsp.Smoother
}

func (b *oscBranch) detuneCents() float32 {
	return float32(b.octave*1200) + float32(b.semi*100) + b.fine
}

// Voice realizes one note as a complete signal chain: three oscillator
// branches into a stereo resonant filter, shaped by the amp envelope,
// modulated by tremolo, and panned into the engine's mix bus. All modulation
// handles are populated at construction; none is ever absent while the voice
// is active.
type Voice struct {
	sampleRate int
	note       int
	velocity   int
	velScale   float32

	branches [NumOscillators]oscBranch

	// Per-osc pan feeds the filter in stereo, so the filter runs one
	// biquad per channel with shared tuning.
	filterL *dsp.Biquad
	filterR *dsp.Biquad
	cutoff  *dsp.Smoother // base cutoff Hz
	q       *dsp.Smoother
	envAmt  *dsp.Smoother // Hz at full filter envelope

	ampEnv    *adsr
	filterEnv *adsr

	tremolo   oscillator
	tremRate  *dsp.Smoother
	tremDepth *dsp.Smoother

	masterPan *dsp.Smoother

	active   bool
	released bool
	age      int // samples since note on

	controlCountdown int
}

// NewVoice builds and starts the full chain for a note. The envelope begins
// at zero and every smoother is snapped to the patch value so nothing glides
// in from stale state.
func NewVoice(sampleRate, note, velocity int, params *Params) *Voice {
	sr := float32(sampleRate)
	v := &Voice{
		sampleRate: sampleRate,
		note:       note,
		velocity:   velocity,
		velScale:   clampf(float32(velocity)/127.0, 0, 1),
		filterL:    dsp.NewBiquad(params.FilterType, params.FilterFreq, params.FilterQ, sr),
		filterR:    dsp.NewBiquad(params.FilterType, params.FilterFreq, params.FilterQ, sr),
		cutoff:     dsp.NewSmoother(params.FilterFreq, smoothingSeconds, sr),
		q:          dsp.NewSmoother(params.FilterQ, smoothingSeconds, sr),
		envAmt:     dsp.NewSmoother(params.FilterEnvAmt, smoothingSeconds, sr),
		ampEnv:     newADSR(sampleRate, params.Attack, params.Decay, params.Sustain, params.Release),
		filterEnv:  newADSR(sampleRate, params.FAttack, params.FDecay, params.FSustain, params.FRelease),
		tremolo:    newOscillator(WaveSine, params.TremRate, sampleRate),
		tremRate:   dsp.NewSmoother(params.TremRate, smoothingSeconds, sr),
		tremDepth:  dsp.NewSmoother(params.TremDepth, smoothingSeconds, sr),
		masterPan:  dsp.NewSmoother(params.Pan, smoothingSeconds, sr),
		active:     true,
	}

	freq := noteToFreq(note)
	for i := range v.branches {
		op := params.Osc[i]
		b := &v.branches[i]
		b.baseFreq = freq
		b.octave = op.Octave
		b.semi = op.Semi
		b.fine = op.Fine
		b.detune = dsp.NewSmoother(b.detuneCents(), smoothingSeconds, sr)
		b.gain = dsp.NewSmoother(op.Gain, smoothingSeconds, sr)
		b.pan = dsp.NewSmoother(op.Pan, smoothingSeconds, sr)
		b.osc = newOscillator(op.Wave, freq*centsToRatio(b.detune.Value()), sampleRate)
	}

	v.ampEnv.trigger()
	v.filterEnv.trigger()
	return v
}

// Note returns the MIDI note number this voice was triggered for.
func (v *Voice) Note() int {
	return v.note
}

// Active reports whether the voice still produces sound (including its
// release tail).
func (v *Voice) Active() bool {
	return v.active
}

// Released reports whether the gate has been lifted.
func (v *Voice) Released() bool {
	return v.released
}

// Release starts the release ramps from the envelopes' current values.
// The allocator may reuse the note slot immediately; the tail keeps sounding
// until the amp envelope reaches zero. Calling Release again is a no-op.
func (v *Voice) Release() {
	if v.released || !v.active {
		return
	}
	v.released = true
	v.ampEnv.beginRelease()
	v.filterEnv.beginRelease()
}

// Stop tears the voice down immediately, without a release tail. Idempotent;
// used by the kill-all path.
func (v *Voice) Stop() {
	v.active = false
	v.released = true
	v.ampEnv.kill()
	v.filterEnv.kill()
}

// SetParam retargets one live modulation handle without retriggering the
// envelopes. Numeric values move through ~20 ms smoothers; waveform and
// filter type switch discretely. No-op once the voice is inactive.
func (v *Voice) SetParam(id ParamID, osc int, value float32) {
	if !v.active {
		return
	}
	if id.IsOscParam() {
		if osc < 0 || osc >= NumOscillators {
			return
		}
		b := &v.branches[osc]
		switch id {
		case ParamOscWave:
			b.osc.wave = Waveform(int(value))
		case ParamOscOctave:
			b.octave = int(value)
			b.detune.SetTarget(b.detuneCents())
		case ParamOscSemi:
			b.semi = int(value)
			b.detune.SetTarget(b.detuneCents())
		case ParamOscFine:
			b.fine = value
			b.detune.SetTarget(b.detuneCents())
		case ParamOscGain:
			b.gain.SetTarget(value)
		case ParamOscPan:
			b.pan.SetTarget(value)
		}
		return
	}

	switch id {
	case ParamFilterType:
		t := dsp.FilterType(int(value))
		v.filterL.SetType(t, v.cutoff.Value(), v.q.Value())
		v.filterR.SetType(t, v.cutoff.Value(), v.q.Value())
	case ParamFilterFreq:
		v.cutoff.SetTarget(value)
	case ParamFilterQ:
		v.q.SetTarget(value)
	case ParamFilterEnvAmt:
		v.envAmt.SetTarget(value)
	case ParamAttack:
		v.ampEnv.setAttack(value)
	case ParamDecay:
		v.ampEnv.setDecay(value)
	case ParamSustain:
		v.ampEnv.setSustain(value)
	case ParamRelease:
		v.ampEnv.setRelease(value)
	case ParamFAttack:
		v.filterEnv.setAttack(value)
	case ParamFDecay:
		v.filterEnv.setDecay(value)
	case ParamFSustain:
		v.filterEnv.setSustain(value)
	case ParamFRelease:
		v.filterEnv.setRelease(value)
	case ParamTremRate:
		v.tremRate.SetTarget(value)
	case ParamTremDepth:
		v.tremDepth.SetTarget(value)
	case ParamPan:
		v.masterPan.SetTarget(value)
	}
}

// updateControlRate applies the smoothed cutoff, filter envelope and tremolo
// rate to the handles that are too expensive to retune per sample.
func (v *Voice) updateControlRate(fenv float32) {
	eff := v.cutoff.Value() + v.envAmt.Value()*fenv
	ceiling := float32(0.45) * float32(v.sampleRate)
	if v.filterL.Type() == dsp.Lowpass {
		ceiling = lowpassCutoffCeiling
	}
	eff = clampf(eff, 20, ceiling)
	v.filterL.Retune(eff, v.q.Value())
	v.filterR.Retune(eff, v.q.Value())

	v.tremolo.setFrequency(v.tremRate.Value(), v.sampleRate)
	for i := range v.branches {
		b := &v.branches[i]
		b.osc.setFrequency(b.baseFreq*centsToRatio(b.detune.Value()), v.sampleRate)
	}
}

// Process renders one stereo interleaved block from this voice and reports
// whether the voice is still alive afterwards.
func (v *Voice) Process(numFrames int) []float32 {
	output := make([]float32, numFrames*2)
	if !v.active {
		return output
	}

	for i := 0; i < numFrames; i++ {
		if v.controlCountdown <= 0 {
			v.updateControlRate(v.filterEnv.value)
			v.controlCountdown = controlInterval
		}
		v.controlCountdown--

		var sumL, sumR float32
		for j := range v.branches {
			b := &v.branches[j]
			b.detune.Next()
			s := b.osc.next() * b.gain.Next()
			pan := b.pan.Next()
			sumL += s * minf(1, 1-pan)
			sumR += s * minf(1, 1+pan)
		}

		env := v.ampEnv.next()
		v.filterEnv.next()
		v.cutoff.Next()
		v.q.Next()
		v.envAmt.Next()

		// Tremolo dips below unity only, so full depth never clips the
		// amp stage: mod spans [1-depth, 1].
		depth := v.tremDepth.Next()
		v.tremRate.Next()
		lfo := v.tremolo.next()
		mod := 1 + depth*(lfo-1)*0.5

		gain := env * mod * v.velScale
		l := v.filterL.Process(sumL) * gain
		r := v.filterR.Process(sumR) * gain

		mpan := v.masterPan.Next()
		output[i*2] = l * minf(1, 1-mpan)
		output[i*2+1] = r * minf(1, 1+mpan)

		v.age++
		if v.ampEnv.idle() {
			v.active = false
			break
		}
	}
	return output
}
