package main

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/f1lt3r/subsynth/synth"
)

// startMIDI connects the first matching input port to the engine and returns
// a shutdown function.
func startMIDI(s *synth.Synth, channel int, deviceSubstr string) (func(), error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}

	var port drivers.In
	for _, in := range ins {
		if deviceSubstr == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(deviceSubstr)) {
			port = in
			break
		}
	}
	if port == nil {
		drv.Close()
		return nil, fmt.Errorf("no MIDI input matching %q", deviceSubstr)
	}
	if err := port.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %s: %w", port.String(), err)
	}

	router := synth.NewRouter(s, channel)
	stop, err := midi.ListenTo(port, func(msg midi.Message, timestampms int32) {
		router.HandleMessage(msg)
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("MIDI listener error, device likely disconnected",
			"device", port.String(), "err", listenErr)
	}))
	if err != nil {
		_ = port.Close()
		drv.Close()
		return nil, fmt.Errorf("listen on %s: %w", port.String(), err)
	}

	logger.Info("MIDI input connected", "device", port.String(), "channel", channel)
	return func() {
		stop()
		_ = port.Close()
		drv.Close()
	}, nil
}
