package synth

// MIDI status bytes handled by the router.
const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0

	realtimeClock = 0xF8
	realtimeStart = 0xFA
	realtimeStop  = 0xFC
)

// OmniChannel makes the router accept channel messages on any channel.
const OmniChannel = -1

// Router translates raw MIDI bytes into engine calls. It understands note
// on/off, control change and the realtime clock messages; everything else is
// dropped. One router per input port.
type Router struct {
	synth   *Synth
	channel int // 0..15, or OmniChannel
}

// NewRouter wires a MIDI input to the engine, filtered to one channel.
func NewRouter(s *Synth, channel int) *Router {
	if channel < 0 || channel > 15 {
		channel = OmniChannel
	}
	return &Router{synth: s, channel: channel}
}

// HandleMessage dispatches one complete MIDI message. Realtime messages pass
// regardless of the channel filter; malformed or truncated messages are
// ignored.
func (r *Router) HandleMessage(data []byte) {
	if len(data) == 0 {
		return
	}

	switch data[0] {
	case realtimeClock:
		r.synth.ClockPulse()
		return
	case realtimeStart:
		r.synth.ClockStart()
		return
	case realtimeStop:
		r.synth.ClockStop()
		return
	}

	status := data[0] & 0xF0
	channel := int(data[0] & 0x0F)
	if r.channel != OmniChannel && channel != r.channel {
		return
	}

	switch status {
	case statusNoteOn:
		if len(data) < 3 {
			return
		}
		// Running-status note on with velocity 0 is a note off.
		if data[2] == 0 {
			r.synth.NoteOff(int(data[1]))
			return
		}
		r.synth.NoteOn(int(data[1]), int(data[2]))
	case statusNoteOff:
		if len(data) < 3 {
			return
		}
		r.synth.NoteOff(int(data[1]))
	case statusControlChange:
		if len(data) < 3 {
			return
		}
		r.synth.ControlChange(data[1], data[2])
	}
}
