package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/f1lt3r/subsynth/internal/fitcommon"
	"github.com/f1lt3r/subsynth/preset"
	"github.com/f1lt3r/subsynth/synth"
)

func main() {
	note := flag.Int("note", 60, "MIDI note number (60 = middle C)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	gate := flag.Float64("gate", 2.0, "Gate hold time in seconds")
	tail := flag.Float64("tail", 1.0, "Extra render time after gate off, in seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (default patch if empty)")
	arp := flag.Bool("arp", false, "Force the arpeggiator on for the render")
	arpRate := flag.Float64("arp-rate", 0, "Arpeggiator BPM override (0 = preset value)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		var err error
		params, err = preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	if *arp {
		params.ArpEnabled = true
	}
	if *arpRate > 0 {
		params.ArpRate = float32(*arpRate)
	}

	mode := "note"
	if params.ArpEnabled {
		mode = fmt.Sprintf("arp %.0f BPM", params.ArpRate)
	}
	fmt.Printf("Rendering %s, note %d, velocity %d, gate %.2fs + tail %.2fs at %d Hz...\n",
		mode, *note, *velocity, *gate, *tail, *sampleRate)

	samples, err := fitcommon.RenderGateStereo(params, *sampleRate, *note, *velocity, *gate, *tail)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render error: %v\n", err)
		os.Exit(1)
	}

	if err := fitcommon.WriteStereoInterleavedWAV(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples)/2)
}
