package synth

// ArpMode selects the arpeggiator's clock source.
type ArpMode int

const (
	// ArpInternal steps on a sample-accurate internal timer derived from the
	// BPM parameter.
	ArpInternal ArpMode = iota
	// ArpClockSlave steps on incoming MIDI timing clock, one step per
	// clockPulsesPerStep pulses. The BPM parameter is ignored in this mode.
	ArpClockSlave
)

// MIDI clock runs at 24 pulses per quarter note, so an eighth-note step is
// 12 pulses.
const clockPulsesPerStep = 12

// arpPattern is the interval sequence in semitones above the base note:
// a major chord plus the octave.
var arpPattern = [...]int{0, 4, 7, 12}

// arpBaseNote is middle C.
const arpBaseNote = 60

// arpeggiator cycles through arpPattern, one note per step. In internal mode
// it counts down samples inside the render loop; in clock-slave mode the
// router feeds it MIDI clock pulses and the countdown is unused.
type arpeggiator struct {
	sampleRate int
	mode       ArpMode
	bpm        float32

	running bool
	index   int

	samplesUntilNextStep float64
	clockPulses          int
}

func newArpeggiator(sampleRate int, bpm float32) *arpeggiator {
	return &arpeggiator{
		sampleRate: sampleRate,
		mode:       ArpInternal,
		bpm:        bpm,
	}
}

// stepDurationSamples is the internal-mode step length: eighth notes, so half
// a beat per step.
func (a *arpeggiator) stepDurationSamples() float64 {
	bpm := float64(a.bpm)
	if bpm <= 0 {
		bpm = 120
	}
	return float64(a.sampleRate) * 60.0 / bpm / 2.0
}

func (a *arpeggiator) setBPM(bpm float32) {
	a.bpm = bpm
}

// setMode switches the clock source without resetting the pattern position,
// so toggling modes mid-run keeps the musical phrase intact.
func (a *arpeggiator) setMode(mode ArpMode) {
	a.mode = mode
	a.clockPulses = 0
}

// start resets the pattern and schedules the first step to fire on the next
// rendered sample (or, in slave mode, on the very next clock pulse).
func (a *arpeggiator) start() {
	a.running = true
	a.index = 0
	a.samplesUntilNextStep = 0
	a.clockPulses = clockPulsesPerStep - 1
}

// stop halts stepping. The pattern position is kept; only a restart resets it.
func (a *arpeggiator) stop() {
	a.running = false
}

// nextNote returns the note for the current step and advances the pattern.
func (a *arpeggiator) nextNote() int {
	note := arpBaseNote + arpPattern[a.index%len(arpPattern)]
	a.index++
	return note
}

// internalActive reports whether the render loop should drive the timer.
func (a *arpeggiator) internalActive() bool {
	return a.running && a.mode == ArpInternal
}

// due reports whether the internal timer has reached the next step.
func (a *arpeggiator) due() bool {
	return a.samplesUntilNextStep <= 0
}

// scheduleNext pushes the timer forward by one step length. Adding instead of
// assigning keeps fractional step lengths from drifting over time.
func (a *arpeggiator) scheduleNext() {
	a.samplesUntilNextStep += a.stepDurationSamples()
}

// advance consumes n rendered samples from the internal timer.
func (a *arpeggiator) advance(n int) {
	a.samplesUntilNextStep -= float64(n)
}

// onClockPulse counts one MIDI timing clock pulse and reports whether a step
// is due. Pulses are ignored while stopped or in internal mode.
func (a *arpeggiator) onClockPulse() bool {
	if !a.running || a.mode != ArpClockSlave {
		return false
	}
	a.clockPulses++
	if a.clockPulses >= clockPulsesPerStep {
		a.clockPulses = 0
		return true
	}
	return false
}
