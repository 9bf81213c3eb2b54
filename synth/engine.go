package synth

import (
	"math"
	"math/rand"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/effects"
)

// MaxVoices caps simultaneous voices. Past the cap the oldest gated voice is
// released to make room.
const MaxVoices = 8

// Fixed effect settings that are not exposed as patch parameters.
const (
	chorusDepthSeconds = 0.004
	chorusStages       = 3
	reverbDamp         = 0.4
	reverbGain         = 0.015
	defaultArpVelocity = 100
)

// Synth is the polyphonic engine: voice allocation, live parameter edits, the
// arpeggiator clock and the master effects bus. All public methods are safe
// for concurrent use; a single mutex serializes edits against the render
// callback, so every change lands between two samples, never inside one.
type Synth struct {
	mu         sync.Mutex
	sampleRate int

	params *Params

	// voices in trigger order; compacted as they go silent.
	voices []*Voice

	arp     *arpeggiator
	arpNote int // note currently held by the arpeggiator, -1 if none

	gateHeld bool
	gateNote int
	gateVel  int

	chorusL, chorusR *effects.Chorus
	reverbL, reverbR *effects.Reverb

	rng    *rand.Rand
	notify func(id ParamID, osc int, value float32)
}

// NewSynth creates an engine with the default patch.
func NewSynth(sampleRate int) (*Synth, error) {
	return NewSynthWithParams(sampleRate, NewDefaultParams())
}

// NewSynthWithParams creates an engine starting from the given patch.
func NewSynthWithParams(sampleRate int, params *Params) (*Synth, error) {
	s := &Synth{
		sampleRate: sampleRate,
		params:     params,
		arp:        newArpeggiator(sampleRate, params.ArpRate),
		arpNote:    -1,
		gateNote:   -1,
		rng:        rand.New(rand.NewSource(rand.Int63())),
	}
	var err error
	if s.chorusL, err = effects.NewChorus(); err != nil {
		return nil, err
	}
	if s.chorusR, err = effects.NewChorus(); err != nil {
		return nil, err
	}
	s.reverbL = effects.NewReverb()
	s.reverbR = effects.NewReverb()
	if err := s.rebuildEffects(); err != nil {
		return nil, err
	}
	return s, nil
}

// SampleRate returns the engine sample rate in Hz.
func (s *Synth) SampleRate() int {
	return s.sampleRate
}

// OnParamChange registers a callback invoked after every accepted edit with
// the clamped value actually stored. Used to echo changes back to attached
// UIs. The callback runs outside the engine lock.
func (s *Synth) OnParamChange(fn func(id ParamID, osc int, value float32)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Params returns a snapshot of the current patch.
func (s *Synth) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.params
}

// LoadParams replaces the whole patch at once, as a preset load does. Live
// voices pick up the voice-level fields through their smoothers so held notes
// glide to the new patch instead of clicking.
func (s *Synth) LoadParams(p *Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.params = *p
	s.arp.setBPM(p.ArpRate)
	if !p.ArpEnabled && s.arp.running {
		s.stopArpLocked()
	}
	s.broadcastPatchLocked()
	return s.rebuildEffects()
}

// broadcastPatchLocked pushes every voice-level parameter of the current
// patch into all live voices.
func (s *Synth) broadcastPatchLocked() {
	forEachVoiceParam(s.params, func(id ParamID, osc int, value float32) {
		for _, v := range s.voices {
			v.SetParam(id, osc, value)
		}
	})
}

// forEachVoiceParam enumerates the parameters that live inside a voice, with
// their current values from p.
func forEachVoiceParam(p *Params, fn func(id ParamID, osc int, value float32)) {
	for i := range p.Osc {
		fn(ParamOscWave, i, float32(p.Osc[i].Wave))
		fn(ParamOscOctave, i, float32(p.Osc[i].Octave))
		fn(ParamOscSemi, i, float32(p.Osc[i].Semi))
		fn(ParamOscFine, i, p.Osc[i].Fine)
		fn(ParamOscGain, i, p.Osc[i].Gain)
		fn(ParamOscPan, i, p.Osc[i].Pan)
	}
	fn(ParamFilterType, 0, float32(p.FilterType))
	fn(ParamFilterFreq, 0, p.FilterFreq)
	fn(ParamFilterQ, 0, p.FilterQ)
	fn(ParamFilterEnvAmt, 0, p.FilterEnvAmt)
	fn(ParamAttack, 0, p.Attack)
	fn(ParamDecay, 0, p.Decay)
	fn(ParamSustain, 0, p.Sustain)
	fn(ParamRelease, 0, p.Release)
	fn(ParamFAttack, 0, p.FAttack)
	fn(ParamFDecay, 0, p.FDecay)
	fn(ParamFSustain, 0, p.FSustain)
	fn(ParamFRelease, 0, p.FRelease)
	fn(ParamTremRate, 0, p.TremRate)
	fn(ParamTremDepth, 0, p.TremDepth)
	fn(ParamPan, 0, p.Pan)
}

// SetParam applies one edit: it is clamped into the patch, broadcast to every
// live voice, and routed to the engine-level handles (effects, arpeggiator).
// Returns the value actually stored.
func (s *Synth) SetParam(id ParamID, osc int, value float32) (float32, error) {
	s.mu.Lock()
	stored := s.params.Apply(id, osc, value)

	var err error
	switch id {
	case ParamChorusEnabled, ParamChorusMix, ParamChorusRate,
		ParamReverbEnabled, ParamReverbWet, ParamReverbRoomSize:
		err = s.rebuildEffects()
	case ParamArpRate:
		s.arp.setBPM(stored)
	case ParamArpEnabled:
		s.applyArpEnabledLocked(stored != 0)
	case ParamVolume:
		// Read directly in Process.
	default:
		for _, v := range s.voices {
			v.SetParam(id, osc, stored)
		}
	}

	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(id, osc, stored)
	}
	return stored, err
}

// applyArpEnabledLocked handles toggling the arpeggiator while a gate may be
// held: the held note hands over to the arpeggiator and back without the gate
// having to be re-pressed.
func (s *Synth) applyArpEnabledLocked(enabled bool) {
	if enabled {
		if s.gateHeld {
			if s.gateNote >= 0 {
				s.noteOffLocked(s.gateNote)
			}
			s.startArpLocked()
		}
		return
	}
	if s.arp.running {
		s.stopArpLocked()
	}
	if s.gateHeld && s.gateNote >= 0 {
		s.noteOnLocked(s.gateNote, s.gateVel)
	}
}

// Randomize rolls a random patch (keeping master volume and the arpeggiator
// switch) and pushes it everywhere a patch load would.
func (s *Synth) Randomize() error {
	s.mu.Lock()
	s.params.Randomize(s.rng)
	s.broadcastPatchLocked()
	err := s.rebuildEffects()
	s.arp.setBPM(s.params.ArpRate)
	s.mu.Unlock()
	return err
}

// NoteOn triggers a voice for the note. A still-gated voice on the same note
// is released first, and past MaxVoices the oldest gated voice is released to
// make room. Velocity 0 is treated as NoteOff per MIDI convention.
func (s *Synth) NoteOn(note, velocity int) {
	if velocity <= 0 {
		s.NoteOff(note)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteOnLocked(note, velocity)
}

func (s *Synth) noteOnLocked(note, velocity int) {
	gated := 0
	var oldest *Voice
	for _, v := range s.voices {
		if !v.Active() || v.Released() {
			continue
		}
		if v.Note() == note {
			v.Release()
			continue
		}
		if oldest == nil {
			oldest = v
		}
		gated++
	}
	if gated >= MaxVoices && oldest != nil {
		oldest.Release()
	}
	s.voices = append(s.voices, NewVoice(s.sampleRate, note, velocity, s.params))
}

// NoteOff releases the gated voice holding the note. Unknown notes and
// already-released voices are ignored.
func (s *Synth) NoteOff(note int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteOffLocked(note)
}

func (s *Synth) noteOffLocked(note int) {
	for _, v := range s.voices {
		if v.Active() && !v.Released() && v.Note() == note {
			v.Release()
			return
		}
	}
}

// KillAll stops every voice immediately, without release tails, and halts the
// arpeggiator.
func (s *Synth) KillAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.voices {
		v.Stop()
	}
	s.voices = s.voices[:0]
	s.arp.stop()
	s.arpNote = -1
	s.gateHeld = false
	s.gateNote = -1
}

// ActiveVoices counts voices still producing sound, release tails included.
func (s *Synth) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.voices {
		if v.Active() {
			n++
		}
	}
	return n
}

// GatedVoices counts voices whose key is still held.
func (s *Synth) GatedVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.voices {
		if v.Active() && !v.Released() {
			n++
		}
	}
	return n
}

// GateOn is the single play control: with the arpeggiator enabled it starts
// the pattern, otherwise it plays the note directly.
func (s *Synth) GateOn(note, velocity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateHeld = true
	s.gateNote = note
	s.gateVel = velocity
	if s.params.ArpEnabled {
		s.startArpLocked()
		return
	}
	s.noteOnLocked(note, velocity)
}

// GateOff releases whatever GateOn started.
func (s *Synth) GateOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gateHeld {
		return
	}
	s.gateHeld = false
	if s.arp.running {
		s.stopArpLocked()
	}
	if s.gateNote >= 0 {
		s.noteOffLocked(s.gateNote)
		s.gateNote = -1
	}
}

// SetArpMode switches the arpeggiator clock source. Switching while running
// keeps the pattern position.
func (s *Synth) SetArpMode(mode ArpMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arp.setMode(mode)
}

// ArpMode returns the current arpeggiator clock source.
func (s *Synth) ArpMode() ArpMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arp.mode
}

// ClockPulse feeds one MIDI timing clock pulse (0xF8) to the arpeggiator.
func (s *Synth) ClockPulse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arp.onClockPulse() {
		s.arpStepLocked()
	}
}

// ClockStart handles MIDI Start (0xFA): with the arpeggiator enabled it takes
// over as the clock source, cancelling any internal countdown, and begins the
// pattern from step zero. A Start while already running is ignored, so
// repeated Starts from a sequencer never restart the phrase.
func (s *Synth) ClockStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.params.ArpEnabled || s.arp.running {
		return
	}
	s.arp.setMode(ArpClockSlave)
	s.arp.start()
}

// ClockStop handles MIDI Stop (0xFC).
func (s *Synth) ClockStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arp.mode == ArpClockSlave && s.arp.running {
		s.stopArpLocked()
	}
}

func (s *Synth) startArpLocked() {
	s.arp.setBPM(s.params.ArpRate)
	s.arp.start()
}

func (s *Synth) stopArpLocked() {
	s.arp.stop()
	if s.arpNote >= 0 {
		s.noteOffLocked(s.arpNote)
		s.arpNote = -1
	}
}

// arpStepLocked releases the previous arp note and triggers the next one.
func (s *Synth) arpStepLocked() {
	if s.arpNote >= 0 {
		s.noteOffLocked(s.arpNote)
	}
	s.arpNote = s.arp.nextNote()
	s.noteOnLocked(s.arpNote, defaultArpVelocity)
}

// Process renders numFrames stereo interleaved samples in [-1, 1]. The block
// is split at arpeggiator step boundaries so steps land on their exact
// sample, independent of the caller's block size.
func (s *Synth) Process(numFrames int) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	output := make([]float32, numFrames*2)
	frame := 0
	for frame < numFrames {
		n := numFrames - frame
		if s.arp.internalActive() {
			for s.arp.due() {
				s.arpStepLocked()
				s.arp.scheduleNext()
			}
			if until := int(math.Ceil(s.arp.samplesUntilNextStep)); until < n {
				n = until
			}
		}
		s.renderChunkLocked(output[frame*2 : (frame+n)*2], n)
		if s.arp.internalActive() {
			s.arp.advance(n)
		}
		frame += n
	}
	s.reapLocked()
	return output
}

// renderChunkLocked mixes all voices into dst and runs the master bus:
// volume, chorus, reverb, clamp.
func (s *Synth) renderChunkLocked(dst []float32, numFrames int) {
	for _, v := range s.voices {
		if !v.Active() {
			continue
		}
		block := v.Process(numFrames)
		for i := range block {
			dst[i] += block[i]
		}
	}

	volume := s.params.Volume
	chorusOn := s.params.ChorusEnabled
	reverbOn := s.params.ReverbEnabled
	for i := 0; i < numFrames; i++ {
		l := float64(dst[i*2] * volume)
		r := float64(dst[i*2+1] * volume)
		if chorusOn {
			l = s.chorusL.ProcessSample(l)
			r = s.chorusR.ProcessSample(r)
		}
		if reverbOn {
			l = s.reverbL.ProcessSample(l)
			r = s.reverbR.ProcessSample(r)
		}
		dst[i*2] = clampf(float32(l), -1, 1)
		dst[i*2+1] = clampf(float32(r), -1, 1)
	}
}

// reapLocked compacts the voice list, dropping voices that went silent.
func (s *Synth) reapLocked() {
	kept := s.voices[:0]
	for _, v := range s.voices {
		if v.Active() {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(s.voices); i++ {
		s.voices[i] = nil
	}
	s.voices = kept
}

// rebuildEffects pushes the effect parameters into both channels of the
// master bus.
func (s *Synth) rebuildEffects() error {
	for _, c := range []*effects.Chorus{s.chorusL, s.chorusR} {
		if err := c.SetSampleRate(float64(s.sampleRate)); err != nil {
			return err
		}
		if err := c.SetMix(float64(s.params.ChorusMix)); err != nil {
			return err
		}
		if err := c.SetDepth(chorusDepthSeconds); err != nil {
			return err
		}
		if err := c.SetSpeedHz(float64(s.params.ChorusRateHz)); err != nil {
			return err
		}
		if err := c.SetStages(chorusStages); err != nil {
			return err
		}
	}
	for _, r := range []*effects.Reverb{s.reverbL, s.reverbR} {
		r.SetWet(float64(s.params.ReverbWet))
		r.SetDry(1.0)
		r.SetRoomSize(float64(s.params.ReverbRoomSize))
		r.SetDamp(reverbDamp)
		r.SetGain(reverbGain)
	}
	// Disabled effects drop their delay lines so re-enabling starts clean.
	if !s.params.ChorusEnabled {
		s.chorusL.Reset()
		s.chorusR.Reset()
	}
	if !s.params.ReverbEnabled {
		s.reverbL.Reset()
		s.reverbR.Reset()
	}
	return nil
}
