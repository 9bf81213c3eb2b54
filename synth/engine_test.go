package synth

import (
	"fmt"
	"math"
	"testing"
)

// TestTuningAccuracy verifies that the generated pitch is within tolerance
func TestTuningAccuracy(t *testing.T) {
	const sampleRate = 48000

	tests := []struct {
		note         int
		expectedFreq float32
		tolerance    float32 // Hz
	}{
		{69, 440.0, 2.0},  // A4
		{81, 880.0, 3.0},  // A5
		{60, 261.63, 2.0}, // Middle C (C4)
		{57, 220.0, 2.0},  // A3
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("Note%d", tt.note), func(t *testing.T) {
			s := newTestSynth(sineTestParams())
			s.NoteOn(tt.note, 127)

			// Skip the attack, then analyze one second.
			_ = s.Process(4800)
			samples := renderLeft(s, sampleRate, 128)

			measured := measureFundamentalFreq(samples, sampleRate)
			diff := math.Abs(float64(measured - tt.expectedFreq))
			if diff > float64(tt.tolerance) {
				t.Errorf("note %d: expected %.2f Hz, got %.2f Hz (diff %.2f Hz)",
					tt.note, tt.expectedFreq, measured, diff)
			}
		})
	}
}

func TestVoiceCapReleasesOldestGated(t *testing.T) {
	s := newTestSynth(NewDefaultParams())

	for note := 60; note < 60+MaxVoices; note++ {
		s.NoteOn(note, 100)
	}
	if got := s.GatedVoices(); got != MaxVoices {
		t.Fatalf("expected %d gated voices, got %d", MaxVoices, got)
	}

	// The ninth note evicts the oldest (60) but lets its tail ring.
	s.NoteOn(72, 100)
	if got := s.GatedVoices(); got != MaxVoices {
		t.Fatalf("expected %d gated voices after steal, got %d", MaxVoices, got)
	}
	for _, v := range s.voices {
		if v.Note() == 60 && !v.Released() {
			t.Fatalf("expected oldest voice (60) to be released")
		}
		if v.Note() == 61 && v.Released() {
			t.Fatalf("voice 61 released, steal order wrong")
		}
	}
	if got := s.ActiveVoices(); got != MaxVoices+1 {
		t.Fatalf("expected evicted voice to keep its release tail: active=%d", got)
	}
}

func TestDuplicateNoteOnReleasesPrevious(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.NoteOn(64, 100)
	s.NoteOn(64, 100)

	if got := s.GatedVoices(); got != 1 {
		t.Fatalf("expected 1 gated voice after retrigger, got %d", got)
	}
	if got := s.ActiveVoices(); got != 2 {
		t.Fatalf("expected old voice to stay active through its release, got %d", got)
	}
	if !s.voices[0].Released() {
		t.Fatalf("expected first voice to be released")
	}
	if s.voices[1].Released() {
		t.Fatalf("expected retriggered voice to be gated")
	}
}

func TestNoteOffIsIdempotent(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.NoteOn(60, 100)
	_ = s.Process(256)

	s.NoteOff(60)
	step := s.voices[0].ampEnv.releaseStep
	s.NoteOff(60)
	s.NoteOff(61) // unknown note, ignored

	if got := s.voices[0].ampEnv.releaseStep; got != step {
		t.Fatalf("second NoteOff restarted the release ramp: %v != %v", got, step)
	}
}

func TestNoteOnVelocityZeroActsAsNoteOff(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.NoteOn(60, 100)
	s.NoteOn(60, 0)
	if got := s.GatedVoices(); got != 0 {
		t.Fatalf("expected note off, still %d gated voices", got)
	}
}

func TestReleasedVoiceIsReapedAfterTail(t *testing.T) {
	p := NewDefaultParams()
	p.Release = 0.05
	s := newTestSynth(p)

	s.NoteOn(60, 100)
	_ = s.Process(4800)
	s.NoteOff(60)

	// 0.3 s is well past the 50 ms release.
	_ = s.Process(14400)
	if got := s.ActiveVoices(); got != 0 {
		t.Fatalf("expected voice to be reaped, %d still active", got)
	}
	if len(s.voices) != 0 {
		t.Fatalf("expected voice list to be compacted, len=%d", len(s.voices))
	}
}

func TestKillAllStopsEverythingImmediately(t *testing.T) {
	p := NewDefaultParams()
	p.ArpEnabled = true
	s := newTestSynth(p)

	s.GateOn(60, 100)
	_ = s.Process(4800)
	s.KillAll()

	if got := s.ActiveVoices(); got != 0 {
		t.Fatalf("expected no active voices after KillAll, got %d", got)
	}
	if s.arp.running {
		t.Fatalf("expected arpeggiator stopped after KillAll")
	}
	out := s.Process(4800)
	if rms := stereoRMS(out); rms > 1e-6 {
		t.Fatalf("expected silence after KillAll, got RMS %f", rms)
	}
}

func TestVolumeScalesOutput(t *testing.T) {
	loud := newTestSynth(sineTestParams())
	quietParams := sineTestParams()
	quietParams.Volume = 0.25
	quiet := newTestSynth(quietParams)

	loud.NoteOn(69, 127)
	quiet.NoteOn(69, 127)
	_ = loud.Process(4800)
	_ = quiet.Process(4800)

	loudRMS := stereoRMS(loud.Process(9600))
	quietRMS := stereoRMS(quiet.Process(9600))
	ratio := loudRMS / quietRMS
	if ratio < 3.5 || ratio > 4.5 {
		t.Fatalf("expected ~4x RMS ratio for 4x volume, got %.3f", ratio)
	}
}

func TestSetParamClampsAndNotifies(t *testing.T) {
	s := newTestSynth(NewDefaultParams())

	var gotID ParamID
	var gotVal float32
	s.OnParamChange(func(id ParamID, osc int, value float32) {
		gotID = id
		gotVal = value
	})

	stored, err := s.SetParam(ParamFilterQ, 0, 100)
	if err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if stored != 20 {
		t.Fatalf("expected Q clamped to 20, got %v", stored)
	}
	if gotID != ParamFilterQ || gotVal != 20 {
		t.Fatalf("callback got (%v, %v), want (%v, 20)", gotID, gotVal, ParamFilterQ)
	}
}

func TestSetParamReachesHeldVoices(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.NoteOn(60, 100)

	if _, err := s.SetParam(ParamFilterFreq, 0, 500); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if got := s.voices[0].cutoff.Target(); got != 500 {
		t.Fatalf("expected held voice cutoff target 500, got %v", got)
	}
}

func TestLoadParamsAppliesToHeldVoices(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.NoteOn(60, 100)

	p := NewDefaultParams()
	p.FilterFreq = 777
	p.Osc[1].Gain = 0.9
	if err := s.LoadParams(p); err != nil {
		t.Fatalf("LoadParams: %v", err)
	}

	if got := s.Params().FilterFreq; got != 777 {
		t.Fatalf("patch not replaced, FilterFreq=%v", got)
	}
	v := s.voices[0]
	if got := v.cutoff.Target(); got != 777 {
		t.Fatalf("held voice cutoff target %v, want 777", got)
	}
	if got := v.branches[1].gain.Target(); got != float32(0.9) {
		t.Fatalf("held voice osc2 gain target %v, want 0.9", got)
	}
}

func TestRandomizeKeepsVolumeAndArpSwitch(t *testing.T) {
	p := NewDefaultParams()
	p.ArpEnabled = true
	s := newTestSynth(p)

	before := s.Params()
	if err := s.Randomize(); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	after := s.Params()

	if after.Volume != before.Volume {
		t.Fatalf("randomize changed master volume: %v -> %v", before.Volume, after.Volume)
	}
	if after.ArpEnabled != before.ArpEnabled {
		t.Fatalf("randomize changed the arpeggiator switch")
	}
}

func TestGateWithoutArpPlaysSingleNote(t *testing.T) {
	s := newTestSynth(NewDefaultParams())
	s.GateOn(60, 100)
	if got := s.GatedVoices(); got != 1 {
		t.Fatalf("expected 1 gated voice, got %d", got)
	}
	s.GateOff()
	if got := s.GatedVoices(); got != 0 {
		t.Fatalf("expected gate off to release the voice, got %d gated", got)
	}
}

func TestLongRenderHasNoNaNOrInf(t *testing.T) {
	p := NewDefaultParams()
	p.ArpEnabled = true
	p.ChorusEnabled = true
	p.ReverbEnabled = true
	p.TremDepth = 0.8
	p.FilterEnvAmt = 4000
	s := newTestSynth(p)
	s.GateOn(60, 100)

	const numBlocks = 300
	const blockSize = 128
	for i := 0; i < numBlocks; i++ {
		out := s.Process(blockSize)
		for j, v := range out {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("non-finite sample at block %d sample %d: %v", i, j, v)
			}
		}
	}
}

func TestOutputStaysWithinFullScale(t *testing.T) {
	p := NewDefaultParams()
	for i := range p.Osc {
		p.Osc[i].Gain = 1
	}
	p.Volume = 1
	s := newTestSynth(p)
	for note := 48; note < 48+MaxVoices; note++ {
		s.NoteOn(note, 127)
	}

	out := s.Process(48000)
	for i, v := range out {
		if v < -1 || v > 1 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}
