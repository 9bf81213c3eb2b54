package fitcommon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/f1lt3r/subsynth/synth"
)

const renderBlockSize = 512

// RenderGateStereo renders a patch playing one gated note and returns the
// stereo interleaved output: gateSeconds of held note plus tailSeconds of
// release.
func RenderGateStereo(p *synth.Params, sampleRate, note, velocity int, gateSeconds, tailSeconds float64) ([]float32, error) {
	if gateSeconds <= 0 {
		return nil, fmt.Errorf("gate length must be > 0")
	}
	if tailSeconds < 0 {
		tailSeconds = 0
	}
	patch := *p
	s, err := synth.NewSynthWithParams(sampleRate, &patch)
	if err != nil {
		return nil, err
	}

	gateFrames := int(gateSeconds * float64(sampleRate))
	tailFrames := int(tailSeconds * float64(sampleRate))
	out := make([]float32, 0, (gateFrames+tailFrames)*2)

	s.GateOn(note, velocity)
	out = appendRender(out, s, gateFrames)
	s.GateOff()
	out = appendRender(out, s, tailFrames)
	return out, nil
}

// RenderGateMono is RenderGateStereo mixed down for the distance metrics.
func RenderGateMono(p *synth.Params, sampleRate, note, velocity int, gateSeconds, tailSeconds float64) ([]float64, error) {
	st, err := RenderGateStereo(p, sampleRate, note, velocity, gateSeconds, tailSeconds)
	if err != nil {
		return nil, err
	}
	return StereoToMono64(st), nil
}

func appendRender(out []float32, s *synth.Synth, frames int) []float32 {
	for rendered := 0; rendered < frames; rendered += renderBlockSize {
		n := renderBlockSize
		if frames-rendered < n {
			n = frames - rendered
		}
		out = append(out, s.Process(n)...)
	}
	return out
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseWorkers parses a worker-count flag: a positive integer, or "auto"
// (returned as 0) to size by GOMAXPROCS.
func ParseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}
