package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/f1lt3r/subsynth/preset"
	"github.com/f1lt3r/subsynth/synth"
)

// logger is the package-wide structured logger.
var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	presetPath := flag.String("preset", "", "Preset JSON file path (default patch if empty)")
	watch := flag.Bool("watch", false, "Reload the preset file when it changes on disk")
	sampleRate := flag.Int("sample-rate", 48000, "Engine sample rate in Hz")
	channel := flag.Int("channel", -1, "MIDI channel filter, 0-15 (-1 = omni)")
	device := flag.String("device", "", "Substring of the MIDI input port to use (first port if empty)")
	clockSlave := flag.Bool("clock-slave", false, "Drive the arpeggiator from incoming MIDI clock")
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	flag.Parse()

	initLogger(*debug)

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSONOrDefault(*presetPath)
		if err != nil {
			logger.Warn("preset load failed, starting with defaults", "path", *presetPath, "err", err)
		}
		params = p
	}

	s, err := synth.NewSynthWithParams(*sampleRate, params)
	if err != nil {
		logger.Error("engine init failed", "err", err)
		os.Exit(1)
	}
	if *clockSlave {
		s.SetArpMode(synth.ArpClockSlave)
	}
	s.OnParamChange(func(id synth.ParamID, osc int, value float32) {
		logger.Debug("param", "name", id.Name(), "osc", osc, "value", value)
	})

	audio, err := startAudio(s, *sampleRate)
	if err != nil {
		logger.Error("audio init failed", "err", err)
		os.Exit(1)
	}
	defer audio.Close()

	// MIDI is optional: without a port the synth still runs from stdin.
	if stop, err := startMIDI(s, *channel, *device); err != nil {
		logger.Warn("MIDI unavailable, keyboard input disabled", "err", err)
	} else {
		defer stop()
	}

	if *watch && *presetPath != "" {
		startPresetWatch(s, *presetPath)
	}

	logger.Info("synth running",
		"sample_rate", *sampleRate,
		"preset", *presetPath,
		"clock_slave", *clockSlave,
	)
	runCommandLoop(s, *presetPath)
}

// startPresetWatch hot-reloads the preset file into the running engine.
func startPresetWatch(s *synth.Synth, path string) {
	paramsCh := make(chan *synth.Params, 1)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	if err := preset.Watch(path, paramsCh, errCh, done); err != nil {
		logger.Warn("preset watch failed", "path", path, "err", err)
		return
	}
	go func() {
		for {
			select {
			case p := <-paramsCh:
				if err := s.LoadParams(p); err != nil {
					logger.Warn("preset reload apply failed", "err", err)
					continue
				}
				logger.Info("preset reloaded", "path", path)
			case err := <-errCh:
				logger.Warn("preset reload failed, keeping current patch", "err", err)
			}
		}
	}()
}
