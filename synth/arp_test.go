package synth

import "testing"

// arpTestParams enables the arpeggiator at 120 BPM: eighth-note steps of
// exactly 12000 samples at 48 kHz.
func arpTestParams() *Params {
	p := NewDefaultParams()
	p.ArpEnabled = true
	p.ArpRate = 120
	return p
}

const arpStepSamples = 12000 // 48000 * 60 / 120 / 2

func TestArpPlaysMajorChordPattern(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(60, 100)

	// Step 0 fires on the very first rendered sample.
	_ = s.Process(1)
	want := []int{60, 64, 67, 72, 60, 64}
	if s.arpNote != want[0] {
		t.Fatalf("step 0: got note %d, want %d", s.arpNote, want[0])
	}
	for step := 1; step < len(want); step++ {
		_ = s.Process(arpStepSamples)
		if s.arpNote != want[step] {
			t.Fatalf("step %d: got note %d, want %d", step, s.arpNote, want[step])
		}
	}
}

func TestArpStepTimingIsSampleAccurate(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(60, 100)

	_ = s.Process(1)
	if s.arpNote != 60 {
		t.Fatalf("expected first step immediately, got note %d", s.arpNote)
	}

	// One sample short of the step boundary: still on step 0.
	_ = s.Process(arpStepSamples - 2)
	if s.arpNote != 60 {
		t.Fatalf("step fired early: note %d", s.arpNote)
	}
	_ = s.Process(2)
	if s.arpNote != 64 {
		t.Fatalf("step fired late: note %d", s.arpNote)
	}
}

func TestArpReleasesPreviousStep(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(60, 100)

	_ = s.Process(1)
	_ = s.Process(arpStepSamples)

	if got := s.GatedVoices(); got != 1 {
		t.Fatalf("expected a single gated arp voice, got %d", got)
	}
	for _, v := range s.voices {
		if v.Note() == 60 && !v.Released() {
			t.Fatalf("previous arp note still gated")
		}
	}
}

func TestArpRestartResetsPattern(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(60, 100)
	_ = s.Process(1)
	_ = s.Process(arpStepSamples) // now on step 1 (64)

	s.GateOff()
	s.GateOn(60, 100)
	_ = s.Process(1)
	if s.arpNote != 60 {
		t.Fatalf("expected restart from step 0, got note %d", s.arpNote)
	}
}

func TestArpRateChangesStepLength(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(60, 100)
	_ = s.Process(1)

	// 240 BPM halves the step to 6000 samples.
	if _, err := s.SetParam(ParamArpRate, 0, 240); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	_ = s.Process(arpStepSamples) // covers the pending step plus most of another
	if s.arpNote == 60 {
		t.Fatalf("expected step to advance after rate change")
	}
}

func TestArpClockSlaveStepsEveryTwelvePulses(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.SetArpMode(ArpClockSlave)
	s.ClockStart()

	// The first pulse after start fires step 0.
	s.ClockPulse()
	if s.arpNote != 60 {
		t.Fatalf("expected step 0 on first pulse, got note %d", s.arpNote)
	}

	for i := 0; i < clockPulsesPerStep-1; i++ {
		s.ClockPulse()
	}
	if s.arpNote != 60 {
		t.Fatalf("step advanced before 12 pulses: note %d", s.arpNote)
	}
	s.ClockPulse()
	if s.arpNote != 64 {
		t.Fatalf("expected step 1 after 12 pulses, got note %d", s.arpNote)
	}
}

func TestArpClockSlaveIgnoresInternalTimer(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.SetArpMode(ArpClockSlave)
	s.ClockStart()

	// Minutes of rendering without clock pulses must not step.
	_ = s.Process(48000 * 5)
	if s.arpNote != -1 {
		t.Fatalf("clock-slave arp stepped from the render loop: note %d", s.arpNote)
	}
}

func TestArpClockStopHaltsStepping(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.SetArpMode(ArpClockSlave)
	s.ClockStart()
	s.ClockPulse()
	s.ClockStop()

	for i := 0; i < clockPulsesPerStep*3; i++ {
		s.ClockPulse()
	}
	if s.arpNote != -1 {
		t.Fatalf("arp stepped after stop: note %d", s.arpNote)
	}
	if got := s.GatedVoices(); got != 0 {
		t.Fatalf("expected stop to release the held arp note, %d gated", got)
	}
}

func TestArpModeSwitchKeepsPatternPosition(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(60, 100)
	_ = s.Process(1)
	_ = s.Process(arpStepSamples) // step 1 (64), next index is 2

	s.SetArpMode(ArpClockSlave)
	for i := 0; i < clockPulsesPerStep; i++ {
		s.ClockPulse()
	}
	if s.arpNote != 67 {
		t.Fatalf("expected pattern to continue at 67 after mode switch, got %d", s.arpNote)
	}
}

func TestClockStartTakesOverAsClockSource(t *testing.T) {
	// Internal mode out of the box: MIDI Start alone must slave the arp to
	// the external clock, no mode selection beforehand.
	s := newTestSynth(arpTestParams())

	s.ClockStart()
	if !s.arp.running {
		t.Fatalf("MIDI start did not start the arp")
	}
	if s.ArpMode() != ArpClockSlave {
		t.Fatalf("MIDI start did not take over the clock, mode %v", s.ArpMode())
	}

	// The internal countdown is cancelled: only pulses may step.
	_ = s.Process(arpStepSamples * 4)
	if s.arpNote != -1 {
		t.Fatalf("render loop stepped a clock-driven arp: note %d", s.arpNote)
	}
	s.ClockPulse()
	if s.arpNote != 60 {
		t.Fatalf("expected step 0 on first pulse, got note %d", s.arpNote)
	}
}

func TestClockStartIgnoredWhenArpDisabled(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.ClockStart()
	if s.arp.running {
		t.Fatalf("MIDI start ran the arp with the switch off")
	}
}

func TestClockStartWhileRunningKeepsPatternPosition(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.ClockStart()
	s.ClockPulse() // step 0 (60)
	for i := 0; i < clockPulsesPerStep; i++ {
		s.ClockPulse()
	} // step 1 (64)

	s.ClockStart() // sequencers resend start; the phrase must not restart
	for i := 0; i < clockPulsesPerStep; i++ {
		s.ClockPulse()
	}
	if s.arpNote != 67 {
		t.Fatalf("expected pattern to continue at 67, got %d", s.arpNote)
	}
}

func TestArpDisableWhileGateHeldHandsBackTheNote(t *testing.T) {
	s := newTestSynth(arpTestParams())
	s.GateOn(72, 100)
	_ = s.Process(1)
	if s.arpNote != 60 {
		t.Fatalf("expected arp running, note %d", s.arpNote)
	}

	if _, err := s.SetParam(ParamArpEnabled, 0, 0); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if s.arp.running {
		t.Fatalf("arp still running after disable")
	}
	if got := s.GatedVoices(); got != 1 {
		t.Fatalf("expected the held gate note to take over, %d gated", got)
	}
	found := false
	for _, v := range s.voices {
		if v.Active() && !v.Released() && v.Note() == 72 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected gated voice on the held note 72")
	}

	// Re-enabling hands the note back to the arpeggiator.
	if _, err := s.SetParam(ParamArpEnabled, 0, 1); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if !s.arp.running {
		t.Fatalf("arp not running after re-enable")
	}
	if got := s.GatedVoices(); got != 0 {
		t.Fatalf("expected direct note released on re-enable, %d gated", got)
	}
}
