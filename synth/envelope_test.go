package synth

import "testing"

func TestADSRAttackEditRetimesMidAttack(t *testing.T) {
	const sr = 48000
	e := newADSR(sr, 1.0, 0.1, 0.5, 0.1)
	e.trigger()

	// 100 ms into a 1 s attack: still ramping.
	for i := 0; i < sr/10; i++ {
		e.next()
	}
	if e.stage != stageAttack {
		t.Fatalf("expected attack stage after 100ms of a 1s attack")
	}

	// Shortening the attack must retime the remaining ramp immediately: with
	// a 1 ms attack the envelope tops out within a couple of milliseconds.
	e.setAttack(0.001)
	for i := 0; i < sr/500; i++ {
		e.next()
	}
	if e.stage == stageAttack {
		t.Fatalf("attack edit mid-attack did not retime the ramp, value %v", e.value)
	}
}

func TestADSRAttackEditOutsideAttackOnlyRetargets(t *testing.T) {
	const sr = 48000
	e := newADSR(sr, 0.001, 0.01, 0.5, 0.1)
	e.trigger()
	for i := 0; i < sr/10; i++ {
		e.next()
	}
	if e.stage != stageSustain {
		t.Fatalf("expected sustain stage, got %v", e.stage)
	}

	// An attack edit while sustaining must not disturb the envelope value.
	before := e.value
	e.setAttack(2.0)
	e.next()
	if diff := absf(e.value - before); diff > 1e-3 {
		t.Fatalf("attack edit moved a sustaining envelope by %v", diff)
	}
}
