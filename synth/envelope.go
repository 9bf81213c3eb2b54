package synth

import "math"

// envStage enumerates the ADSR phases.
type envStage int

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

const (
	minSegmentSeconds = 0.001
	minSustainLevel   = 0.0001
)

// adsr is a per-voice envelope generator. The attack segment is linear, the
// decay approaches the sustain level exponentially (it never targets exactly
// zero, the sustain floor keeps the curve defined), and release ramps
// linearly from whatever value the envelope currently has.
type adsr struct {
	sampleRate int

	attack  float32 // seconds
	decay   float32
	sustain float32 // level
	release float32

	stage envStage
	value float32

	attackStep   float32
	decayCoeff   float32
	sustainLevel float32
	releaseStep  float32
}

func newADSR(sampleRate int, attack, decay, sustain, release float32) *adsr {
	return &adsr{
		sampleRate: sampleRate,
		attack:     attack,
		decay:      decay,
		sustain:    sustain,
		release:    release,
	}
}

func (e *adsr) setAttack(v float32) {
	e.attack = v
	if e.stage == stageAttack {
		e.attackStep = 1.0 / (maxf(minSegmentSeconds, e.attack) * float32(e.sampleRate))
	}
}

func (e *adsr) setRelease(v float32) { e.release = v }

func (e *adsr) setDecay(v float32) {
	e.decay = v
	if e.stage == stageDecay {
		e.decayCoeff = decayCoefficient(e.decay, e.sampleRate)
	}
}

func (e *adsr) setSustain(v float32) {
	e.sustain = v
	if e.stage == stageDecay || e.stage == stageSustain {
		e.sustainLevel = maxf(minSustainLevel, e.sustain)
	}
}

// trigger starts the envelope from zero.
func (e *adsr) trigger() {
	e.value = 0
	e.stage = stageAttack
	e.attackStep = 1.0 / (maxf(minSegmentSeconds, e.attack) * float32(e.sampleRate))
}

// beginRelease ramps from the current value to zero. Calling it again while
// already releasing (or idle) has no effect.
func (e *adsr) beginRelease() {
	if e.stage == stageRelease || e.stage == stageIdle {
		return
	}
	e.stage = stageRelease
	e.releaseStep = e.value / (maxf(minSegmentSeconds, e.release) * float32(e.sampleRate))
}

// kill drops the envelope to idle immediately. Hard-stop path only.
func (e *adsr) kill() {
	e.stage = stageIdle
	e.value = 0
}

func (e *adsr) idle() bool {
	return e.stage == stageIdle
}

// next advances one sample and returns the envelope value in [0, 1].
func (e *adsr) next() float32 {
	switch e.stage {
	case stageAttack:
		e.value += e.attackStep
		if e.value >= 1 {
			e.value = 1
			e.stage = stageDecay
			e.decayCoeff = decayCoefficient(e.decay, e.sampleRate)
			e.sustainLevel = maxf(minSustainLevel, e.sustain)
		}
	case stageDecay:
		e.value += (e.sustainLevel - e.value) * e.decayCoeff
		if absf(e.value-e.sustainLevel) < 1e-4 {
			e.value = e.sustainLevel
			e.stage = stageSustain
		}
	case stageSustain:
		// Sustain edits retarget through setSustain; drift there smoothly.
		e.value += (e.sustainLevel - e.value) * 0.001
	case stageRelease:
		e.value -= e.releaseStep
		if e.value <= 0 {
			e.value = 0
			e.stage = stageIdle
		}
	}
	return e.value
}

// decayCoefficient maps a decay time to a one-pole coefficient that covers
// five time constants (~99.3% of the way to sustain) in that many seconds.
func decayCoefficient(decaySeconds float32, sampleRate int) float32 {
	samples := float64(maxf(minSegmentSeconds, decaySeconds)) * float64(sampleRate)
	return float32(1.0 - math.Exp(-5.0/samples))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
