package main

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/f1lt3r/subsynth/synth"
)

// engineReader adapts the block-rendering engine to the io.Reader the audio
// backend pulls from. Each Read renders exactly the requested frames, so
// latency is set by the backend's buffer size alone.
type engineReader struct {
	s *synth.Synth
}

func (r *engineReader) Read(p []byte) (int, error) {
	// Stereo float32: 8 bytes per frame.
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	block := r.s.Process(frames)
	for i, v := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}

type audioOutput struct {
	player *oto.Player
}

// startAudio opens the platform audio device and starts pulling from the
// engine.
func startAudio(s *synth.Synth, sampleRate int) (*audioOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(&engineReader{s: s})
	player.Play()
	return &audioOutput{player: player}, nil
}

func (a *audioOutput) Close() {
	_ = a.player.Close()
}
